package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/chaos-io/clearcut/rembg"
)

type Config struct {
	Addr           string
	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	MaxEdge        int
	MaxUploadBytes int64
	ResultTTL      time.Duration
	SweepInterval  time.Duration
	ModelTimeout   time.Duration
	Debug          bool
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		GeminiBaseURL:  rembg.DefaultGeminiURL,
		GeminiModel:    rembg.GeminiImageModel,
		MaxEdge:        1024,
		MaxUploadBytes: 10 << 20,
		ResultTTL:      30 * time.Minute,
		SweepInterval:  time.Minute,
		ModelTimeout:   60 * time.Second,
	}
}

// Load 读取 .env（可选）和环境变量
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv 从 lookup 里取配置，未设置的项使用默认值
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			var n int
			if n, err = strconv.Atoi(v); err != nil {
				err = fmt.Errorf("%s: %w", key, err)
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" && err == nil {
			var d time.Duration
			if d, err = time.ParseDuration(v); err != nil {
				err = fmt.Errorf("%s: %w", key, err)
				return
			}
			*dst = d
		}
	}

	str("CLEARCUT_ADDR", &cfg.Addr)
	str("API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("GEMINI_BASE_URL", &cfg.GeminiBaseURL)
	str("GEMINI_MODEL", &cfg.GeminiModel)
	integer("CLEARCUT_MAX_EDGE", &cfg.MaxEdge)
	duration("CLEARCUT_RESULT_TTL", &cfg.ResultTTL)
	duration("CLEARCUT_SWEEP_INTERVAL", &cfg.SweepInterval)
	duration("CLEARCUT_MODEL_TIMEOUT", &cfg.ModelTimeout)

	if v, ok := lookup("CLEARCUT_MAX_UPLOAD_BYTES"); ok && v != "" && err == nil {
		if cfg.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			err = fmt.Errorf("CLEARCUT_MAX_UPLOAD_BYTES: %w", err)
		}
	}
	if v, ok := lookup("CLEARCUT_DEBUG"); ok && v != "" && err == nil {
		if cfg.Debug, err = strconv.ParseBool(v); err != nil {
			err = fmt.Errorf("CLEARCUT_DEBUG: %w", err)
		}
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: empty listen address")
	case c.MaxUploadBytes <= 0:
		return errors.New("config: max upload bytes must be positive")
	case c.SweepInterval <= 0:
		return errors.New("config: sweep interval must be positive")
	case c.ModelTimeout <= 0:
		return errors.New("config: model timeout must be positive")
	}
	return nil
}
