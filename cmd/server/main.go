package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	campus "github.com/lychee-technology/campus"
	"github.com/lychee-technology/campus/factory"
	"github.com/lychee-technology/campus/internal"
)

// Server exposes the mutation service over HTTP
type Server struct {
	mutations  map[string]mutationFunc
	authorizer authorizerFunc
	health     func(ctx context.Context) error
	router     chi.Router
}

// NewServer creates a new Server instance
func NewServer(svc campus.MutationService, authorizer authorizerFunc, health func(ctx context.Context) error) *Server {
	return &Server{
		mutations:  mutationTable(svc),
		authorizer: authorizer,
		health:     health,
		router:     chi.NewRouter(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes(metricsPath string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	if metricsPath != "" {
		s.router.Handle(metricsPath, promhttp.Handler())
	}
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/mutations/{mutation}", s.handleMutation)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.S().Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()))
	})
}

func newLogger(cfg campus.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func loadConfig(path string) (*campus.Config, error) {
	cfg := campus.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = campus.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, cfg.Validate()
}

func main() {
	configPath := flag.String("config", getEnv("CONFIG_FILE", ""), "path to a YAML config file")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := internal.NewPostgresPool(ctx, config.Database)
	if err != nil {
		sugar.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	svc, err := factory.NewMutationServiceWithConfig(config, pool)
	if err != nil {
		sugar.Fatalf("failed to create mutation service: %v", err)
	}

	authorizer := func(userID uuid.UUID, admin bool) campus.Authorizer {
		return factory.NewAuthorizer(pool, userID, admin)
	}
	health := func(ctx context.Context) error {
		return internal.PostgresHealthCheck(ctx, pool, 2*time.Second)
	}

	server := NewServer(svc, authorizer, health)
	metricsPath := ""
	if config.Metrics.Enabled {
		metricsPath = config.Metrics.Path
	}
	server.RegisterRoutes(metricsPath)

	httpServer := &http.Server{
		Addr:         ":" + config.Server.Port,
		Handler:      server,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugar.Warnw("graceful shutdown failed", "err", err)
		}
	}()

	sugar.Infow("starting server", "port", config.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalf("server error: %v", err)
	}
}
