package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"ipcheck/config"
	"ipcheck/internal/admin"
	"ipcheck/internal/api"
	"ipcheck/internal/db"
	"ipcheck/internal/health"
	"ipcheck/internal/logs"
	"ipcheck/internal/middleware"
	"ipcheck/internal/probe"
	"ipcheck/internal/repo"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) error {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})

	/* 2) DB */
	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	if err := db.Migrate(d); err != nil {
		return fmt.Errorf("db migrate failed: %w", err)
	}

	/* 3) Пинг */
	prober := probe.NewPingProber(probe.PingConfig{
		Network:    cfg.Probe.Network,
		Privileged: cfg.Probe.Privileged,
		Count:      cfg.Probe.Count,
		Interval:   cfg.Probe.Interval,
		Timeout:    cfg.Probe.Timeout,
	}, logs.Logger)

	if err := a.Mount(d, probe.NewSweeper(prober, logs.Logger)); err != nil {
		return err
	}

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

// Mount собирает роутер поверх готовой БД и оркестратора проверок.
func (a *App) Mount(d *gorm.DB, sweeper api.Sweeper) error {
	a.db = d

	store := newStoreAdapter(repo.NewSiteStore(d), repo.NewAssignedStore(d), repo.NewIPCheckStore(d))

	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	health.RegisterRoutesWithDB(a.Router, d) // /healthz, /readyz
	api.RegisterRoutes(a.Router, api.NewHandler(store, sweeper))

	// веб-страница сверки поверх того же хранилища
	return admin.Attach(a.Router, admin.Dependencies{Store: store, Sweeper: sweeper, Operator: "web"})
}

// writeTimeout — ответ /api/status приходит только после опроса всей подсети.
func writeTimeout(probeTimeout time.Duration) time.Duration {
	const minimum = 15 * time.Second
	if t := probeTimeout + 10*time.Second; t > minimum {
		return t
	}
	return minimum
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(a.cfg.Probe.Timeout),
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-a.ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
