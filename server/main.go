package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"questline/server/account"
	"questline/server/api"
	"questline/server/auth"
	"questline/server/catalog"
	"questline/server/config"
	"questline/server/snapshot"
	"questline/server/srv"
)

// setup wires every component for cfg. The returned cleanup closes the
// snapshot store and stops the catalog watcher.
func setup(ctx context.Context, cfg config.Config) (http.Handler, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	cleanup := []func(){cancel}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		closeAll()
		return nil, nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogDir != "" {
		c, err := catalog.LoadDir(cfg.CatalogDir)
		if err != nil {
			return fail(fmt.Errorf("load catalog: %w", err))
		}
		cat = c
	}
	catalogs := catalog.NewSource(cat)
	if cfg.CatalogDir != "" {
		go func() {
			if err := catalog.Watch(ctx, cfg.CatalogDir, catalogs); err != nil {
				log.Printf("CATALOG: watcher stopped: %v", err)
			}
		}()
	}

	var store snapshot.Store
	switch cfg.SnapshotBackend {
	case config.BackendSQLite:
		s, err := snapshot.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("open sqlite: %w", err))
		}
		cleanup = append(cleanup, func() { _ = s.Close() })
		store = s
	default:
		s, err := snapshot.NewFileStore(cfg.SnapshotsDir())
		if err != nil {
			return fail(fmt.Errorf("open file store: %w", err))
		}
		store = s
	}

	accounts, err := account.NewRepo(cfg.AccountsDir())
	if err != nil {
		return fail(err)
	}
	svc := account.NewService(accounts, store, catalogs, time.Now)

	a, err := auth.NewAuth(cfg.DataDir, auth.Options{
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.TokenTTL,
		OnRegister: func(userID, username string) error {
			_, err := svc.Register(userID, username)
			return err
		},
	})
	if err != nil {
		return fail(fmt.Errorf("init auth: %w", err))
	}

	hub := srv.NewHub(svc)
	cleanup = append(cleanup, hub.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", a.HandleRegister)
	mux.HandleFunc("POST /api/login", a.HandleLogin)
	api.New(svc).Register(mux, a.RequireAuth)
	mux.HandleFunc("/ws", hub.Handler(a))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	return mux, closeAll, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := setup(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	s := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	log.Printf("server listening on %s (snapshots: %s)", cfg.Addr, cfg.SnapshotBackend)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
