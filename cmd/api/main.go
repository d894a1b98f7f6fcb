package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/slim-leaderboard-web/internal/application"
	appanalysis "github.com/bryanwahyu/slim-leaderboard-web/internal/application/analysis"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/config"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/domain/runs"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/slim-leaderboard-web/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/slim-leaderboard-web/internal/infra/db/postgres"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/infra/executor/process"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/slim-leaderboard-web/internal/infra/storage"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/infra/web"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/logging"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/middleware"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		debug      bool
	)
	cmd := &cobra.Command{
		Use:           "slim-leaderboard-web",
		Short:         "Web interface and JSON API for the SLIM leaderboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("debug") {
				cfg.Server.Debug = debug
			}
			return serve(cfg, !envSet("PORT"))
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml (optional)")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging (overrides DEBUG)")
	return cmd
}

// loadConfig reads the given file, or ./config.yaml when it exists, or nothing.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func serve(cfg *config.Config, local bool) error {
	logger, err := logging.New(cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer logger.Sync()
	defer logging.Install(logger)()

	if !cfg.TokenConfigured() {
		logger.Warn("GITHUB_TOKEN environment variable not set; /api/analyze will refuse requests until it is",
			zap.String("example", "export GITHUB_TOKEN=your_token_here"))
	}

	ctx := context.Background()
	readiness := map[string]middleware.HealthChecker{}

	// init runner
	env := []string{}
	if cfg.TokenConfigured() {
		env = append(env, "GITHUB_TOKEN="+cfg.GitHub.Token)
	}
	runner := process.NewRunner(process.Options{
		Command:       cfg.Leaderboard.Command,
		TempDir:       cfg.Leaderboard.TempDir,
		Timeout:       cfg.Leaderboard.Timeout,
		MaxConcurrent: int64(cfg.Leaderboard.MaxConcurrent),
		Env:           env,
	})

	svc := &appanalysis.Service{
		Runner:          runner,
		Clock:           application.SystemClock{},
		TokenConfigured: cfg.TokenConfigured,
	}

	// init run history (optional)
	db, repo, err := openRunHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("run history init: %w", err)
	}
	if db != nil {
		defer db.Close()
		svc.Runs = repo
		readiness["database"] = &middleware.DatabaseHealthChecker{DB: db}
		logger.Info("run history enabled", zap.String("driver", cfg.Database.Driver))
	}

	// init minio (optional)
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Artifacts = store
		readiness["archive"] = store
		logger.Info("output archive enabled", zap.String("bucket", cfg.Minio.BucketName))
	}

	// init openai (optional)
	if cfg.OpenAI.APIKey != "" {
		svc.Insights = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		logger.Info("insights enabled", zap.String("model", cfg.OpenAI.Model))
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
		defer limiter.Stop()
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		Assets:          web.NewAssets(cfg.Server.StaticDir),
		TokenConfigured: cfg.TokenConfigured,
		APIKeys:         cfg.Auth.APIKeys,
		RateLimiter:     limiter,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Readiness:       readiness,
	})

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// analyze blocks for up to the leaderboard timeout
		WriteTimeout: cfg.Leaderboard.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting SLIM leaderboard web interface", zap.String("address", addr))
		if local {
			logger.Info(fmt.Sprintf("open your browser to http://localhost:%d", cfg.Server.Port))
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", zap.Error(err))
			return err
		}
		return nil
	case <-stop:
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		return err
	}
	return nil
}

func openRunHistory(ctx context.Context, cfg *config.Config) (*sql.DB, runs.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, mysqlp.NewRunRepository(db), nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgresp.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, postgresp.NewRunRepository(db), nil
	}
	return nil, nil, nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
