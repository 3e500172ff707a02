package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labstack/echo/v4"

	"github.com/c-johnson06/optionSentinel/internal/cache"
	"github.com/c-johnson06/optionSentinel/internal/flow"
	"github.com/c-johnson06/optionSentinel/internal/handler/api"
	"github.com/c-johnson06/optionSentinel/internal/hub"
	"github.com/c-johnson06/optionSentinel/internal/upstream"
	"github.com/c-johnson06/optionSentinel/pkg/config"
	xhttp "github.com/c-johnson06/optionSentinel/pkg/http"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
	"github.com/c-johnson06/optionSentinel/pkg/metrics"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	cache      *cache.TTLCache
	hub        *hub.Hub
	scheduler  *gocron.Scheduler
	httpServer *xhttp.Server
}

// handlers lets several route groups share one server.
type handlers []xhttp.Handler

func (hs handlers) RegisterRoutes(e *echo.Echo) {
	for _, h := range hs {
		h.RegisterRoutes(e)
	}
}

// New wires all dependencies from configuration.
func New(cfg *config.Config, log *logger.Logger) *App {
	clock := util.SystemClock{}
	rec := metrics.New()

	c := cache.NewTTLCache(clock)

	client := upstream.NewClient(cfg.Tradier.BaseURL, cfg.Tradier.Token, c, rec, upstream.TTLConfig{
		Quote:       cfg.Tradier.TTL.Quote,
		Expirations: cfg.Tradier.TTL.Expirations,
		Chain:       cfg.Tradier.TTL.Chain,
		Search:      cfg.Tradier.TTL.Search,
		History:     cfg.Tradier.TTL.History,
	})

	scorer := flow.NewScorer(flow.ScoreConfig{
		BroadMarketETFs: cfg.Scanner.BroadMarketETFs,
		MegaCaps:        cfg.Scanner.MegaCaps,
	}, clock)

	registry := hub.NewRegistry(cfg.Scanner.DefaultTickers, cfg.Scanner.MaxUniverse)

	scanner := flow.NewScanner(client, scorer, registry, flow.ScanConfig{
		DefaultExpirations: cfg.Scanner.DefaultExpirations,
		DynamicExpirations: cfg.Scanner.DynamicExpirations,
		MinScoreDefault:    cfg.Scanner.MinScoreDefault,
		MinScoreDynamic:    cfg.Scanner.MinScoreDynamic,
	}, log, rec)

	h := hub.NewHub(registry, scanner, log, rec, clock)

	restHandler := api.NewHandler(log, client, scanner, c, cfg.Scanner.DefaultTickers, clock)
	wsHandler := api.NewWSHandler(log, h)

	httpServer := xhttp.NewServer(handlers{restHandler, wsHandler},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true),
	)

	return &App{
		cfg:        cfg,
		log:        log,
		cache:      c,
		hub:        h,
		scheduler:  gocron.NewScheduler(time.UTC),
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run(ctx)

	if _, err := a.scheduler.Every(a.cfg.Broadcast.Interval).Do(a.hub.Trigger); err != nil {
		return err
	}
	if _, err := a.scheduler.Every(a.cfg.Broadcast.SweepInterval).Do(func() {
		if n := a.cache.Sweep(); n > 0 {
			a.log.Debug("cache sweep", logger.Int("evicted", n))
		}
	}); err != nil {
		return err
	}
	a.scheduler.StartAsync()

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("server started",
		logger.Int("port", a.cfg.Server.Port),
		logger.Strings("default_tickers", a.cfg.Scanner.DefaultTickers))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
		return err
	}

	a.log.Info("shutdown complete")
	return nil
}
