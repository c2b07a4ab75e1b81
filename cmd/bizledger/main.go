package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/bizledger/bizledger/cmd/bizledger/cli"
	"github.com/bizledger/bizledger/internal/agenda"
	"github.com/bizledger/bizledger/internal/app"
	"github.com/bizledger/bizledger/internal/dashboard"
	"github.com/bizledger/bizledger/internal/dashboard/export"
	dashboardhttp "github.com/bizledger/bizledger/internal/dashboard/http"
	"github.com/bizledger/bizledger/internal/docstore"
	"github.com/bizledger/bizledger/internal/masterdata"
	"github.com/bizledger/bizledger/internal/observability"
	"github.com/bizledger/bizledger/internal/platform/cache"
	"github.com/bizledger/bizledger/internal/platform/db"
	"github.com/bizledger/bizledger/internal/sales"
	"github.com/bizledger/bizledger/internal/snapshot"
	"github.com/bizledger/bizledger/jobs"
	"github.com/bizledger/bizledger/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(ctx, cfg, os.Args[2:]))
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	store := docstore.New(pool)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("migrate document store", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, snapshot cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	loc := cfg.Location()
	loader := snapshot.NewLoader(
		snapshot.NewDocSource(store, loc),
		snapshot.NewCache(redisClient, cfg.SnapshotTTL),
		cfg.SnapshotTTL,
		loc,
		logger,
	)
	if err := loader.Watch(ctx); err != nil {
		logger.Warn("snapshot invalidation listener", slog.Any("error", err))
	}

	validate := validator.New()

	masterService := masterdata.NewService(masterdata.NewRepository(store), validate, loader, logger)
	salesService := sales.NewService(sales.NewRepository(store, loc), masterService, sales.Options{
		Validate:    validate,
		Invalidator: loader,
		Logger:      logger,
		Location:    loc,
	})
	agendaService := agenda.NewService(agenda.NewRepository(store), masterService, validate, logger, loc)
	dashboardService := dashboard.NewService(loader, dashboard.Options{
		Location:    loc,
		AlertWindow: cfg.AlertWindow,
		Logger:      logger,
	})

	money, err := export.NewMoney(cfg.AppLocale)
	if err != nil {
		logger.Error("init currency formatting", slog.String("locale", cfg.AppLocale), slog.Any("error", err))
		os.Exit(1)
	}
	pdfExporter := &export.PDFExporter{
		Renderer: report.NewClient(cfg.GotenbergURL),
		Money:    money,
		Location: loc,
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		MasterDataHandler: masterdata.NewHandler(logger, masterService),
		SalesHandler:      sales.NewHandler(logger, salesService),
		AgendaHandler:     agenda.NewHandler(logger, agendaService),
		DashboardHandler:  dashboardhttp.NewHandler(logger, dashboardService, pdfExporter, loc),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           observability.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) int {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jobsCLI.Close() }()

	if err := cli.Run(ctx, jobsCLI, args, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, cli.Usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
