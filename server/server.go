package server

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/clearcut/chroma"
	"github.com/chaos-io/clearcut/config"
	"github.com/chaos-io/clearcut/content"
	"github.com/chaos-io/clearcut/cutout"
	"github.com/chaos-io/clearcut/session"
	"github.com/chaos-io/clearcut/store"
)

//go:embed web/*
var webFS embed.FS

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg       config.Config
	engine    *gin.Engine
	sessions  *session.Manager
	results   *store.Store
	processor *cutout.Processor
	filter    *chroma.Filter
	site      content.Site
	index     []byte
}

func New(cfg config.Config, processor *cutout.Processor, sessions *session.Manager, results *store.Store) (*Server, error) {
	index, err := webFS.ReadFile("web/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		results:   results,
		processor: processor,
		filter:    processor.Filter,
		site:      content.Default(),
		index:     index,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/content", s.handleContent)

	upload := api.Group("", limitBody(s.cfg.MaxUploadBytes))
	upload.POST("/transparency", s.handleTransparency)

	sessions := api.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.POST("/:id/camera/start", s.handleStartCamera)
	sessions.POST("/:id/camera/stop", s.handleStopCamera)
	sessions.POST("/:id/reset", s.handleReset)
	sessions.POST("/:id/images", limitBody(s.cfg.MaxUploadBytes), s.handleSubmit)

	results := api.Group("/results")
	results.GET("/:id", s.handleResult)
	results.GET("/:id/download", s.handleDownload)
	results.GET("/:id/original", s.handleOriginal)
	results.GET("/:id/compare", s.handleCompare)

	return r
}

// Run 阻塞直到 ctx 结束或监听失败
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "addr", s.cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
