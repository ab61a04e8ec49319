package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hine/hine/internal/config"
	"github.com/hine/hine/internal/domain/child"
	"github.com/hine/hine/internal/domain/doctor"
	"github.com/hine/hine/internal/domain/exam"
	"github.com/hine/hine/internal/platform/auth"
	"github.com/hine/hine/internal/platform/cache"
	"github.com/hine/hine/internal/platform/db"
	"github.com/hine/hine/internal/platform/hinereport"
	"github.com/hine/hine/internal/platform/middleware"
	"github.com/hine/hine/internal/platform/reporting"
)

// SnapshotAdapter adapts a child.ChildRepository to the exam.SnapshotWriter
// interface, avoiding an import between the exam and child packages.
type SnapshotAdapter struct {
	repo child.ChildRepository
}

func NewSnapshotAdapter(repo child.ChildRepository) *SnapshotAdapter {
	return &SnapshotAdapter{repo: repo}
}

// UpdateSnapshot implements exam.SnapshotWriter.
func (a *SnapshotAdapter) UpdateSnapshot(ctx context.Context, childID string, s exam.Snapshot) error {
	return a.repo.UpdateSnapshot(ctx, childID, child.Measurements{
		GestationalAge:    s.GestationalAge,
		ChronologicalAge:  s.ChronologicalAge,
		CorrectedAge:      s.CorrectedAge,
		HeadCircumference: s.HeadCircumference,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hine-server",
		Short: "HINE pediatric neurological exam API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(examCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HINE API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func reportOptions(cfg *config.Config) hinereport.Options {
	return hinereport.Options{Title: cfg.ReportTitle, Copyright: cfg.ReportCopyright}
}

// newExamService wires the exam aggregation service over postgres. The child
// repository doubles as the snapshot writer, inside the exam transaction.
func newExamService(pool *pgxpool.Pool, children child.ChildRepository, logger zerolog.Logger, opts ...exam.Option) *exam.Service {
	opts = append([]exam.Option{exam.WithLogger(logger)}, opts...)
	return exam.NewService(
		db.NewTxManager(pool),
		exam.NewExamRepoPG(pool),
		exam.NewSectionRepoPG(pool),
		exam.NewItemRepoPG(pool),
		exam.NewViewRepoPG(pool),
		NewSnapshotAdapter(children),
		opts...,
	)
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := newLogger(cfg)

	// Database
	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Exam cache
	var examOpts []exam.Option
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, exam cache disabled")
		} else {
			defer client.Close()
			examOpts = append(examOpts, exam.WithCache(cache.NewExamCache(cache.NewRedisKVStore(client), cfg.ExamCacheTTL)))
			logger.Info().Dur("ttl", cfg.ExamCacheTTL).Msg("exam cache enabled")
		}
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.ExamBodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, cfg.DocumentTimeout))

	// Auth middleware
	if cfg.IsDev() && cfg.AuthSigningKey == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool, db.StatsFromPool(pool)))

	apiV1 := e.Group("/api/v1")

	// Children and advisors
	childRepo := child.NewChildRepoPG(pool)
	childSvc := child.NewService(db.NewTxManager(pool), childRepo, child.NewAdvisorRepoPG(pool))
	child.NewHandler(childSvc).RegisterRoutes(apiV1)

	// Doctors
	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	doctor.NewHandler(doctorSvc).RegisterRoutes(apiV1)

	// Exams
	examSvc := newExamService(pool, childRepo, logger, examOpts...)
	exam.NewHandler(examSvc, hinereport.NewRenderer(reportOptions(cfg))).RegisterRoutes(apiV1)

	// Reporting
	reporting.NewHandler(pool).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
