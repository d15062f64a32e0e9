package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/clearcut/config"
	"github.com/chaos-io/clearcut/cutout"
	"github.com/chaos-io/clearcut/rembg"
	"github.com/chaos-io/clearcut/server"
	"github.com/chaos-io/clearcut/session"
	"github.com/chaos-io/clearcut/store"
	"github.com/chaos-io/clearcut/util"
)

func main() {
	inputPath := flag.String("in", "", "process a single image (path or http url) and exit")
	outputPath := flag.String("out", "output/clearcut-ai-result.png", "output path used with -in")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := cutout.NewProcessor(newRemover(cfg))
	processor.MaxEdge = cfg.MaxEdge

	if *inputPath != "" {
		if err := runOnce(ctx, processor, *inputPath, *outputPath); err != nil {
			slog.Error("failed to process image", "input", *inputPath, "err", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, processor); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if debug {
		level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	slog.SetDefault(slog.New(handler))
}

func newRemover(cfg config.Config) rembg.Remover {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, background removal is a pass-through")
		return rembg.NewDefaultRemBG()
	}
	return rembg.NewGeminiRemBG(cfg.GeminiAPIKey,
		rembg.WithBaseURL(cfg.GeminiBaseURL),
		rembg.WithModel(cfg.GeminiModel),
		rembg.WithTimeout(cfg.ModelTimeout),
	)
}

func runOnce(ctx context.Context, processor *cutout.Processor, in, out string) error {
	data, err := util.LoadImage(ctx, in)
	if err != nil {
		return err
	}
	result, err := processor.Process(ctx, data)
	if err != nil {
		return err
	}
	if err := util.WriteFile(out, result.PNG); err != nil {
		return err
	}
	slog.Info("done", "output", out, "keyed", result.Stats.Keyed)
	return nil
}

func serve(ctx context.Context, cfg config.Config, processor *cutout.Processor) error {
	sessions := session.NewManager(cfg.ResultTTL)
	results := store.New(cfg.ResultTTL)

	sweeper, err := store.NewSweeper(cfg.SweepInterval, map[string]store.Sweepable{
		"results":  results,
		"sessions": sessions,
	})
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv, err := server.New(cfg, processor, sessions, results)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
