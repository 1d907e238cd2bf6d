package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/backup"
	"github.com/lojf/classbook/internal/config"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/handlers"
	"github.com/lojf/classbook/internal/logger"
	"github.com/lojf/classbook/internal/report"
	"github.com/lojf/classbook/internal/schedule"
	"github.com/lojf/classbook/internal/services"
	"github.com/lojf/classbook/internal/settings"
	"github.com/lojf/classbook/internal/store"
	"github.com/lojf/classbook/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log, closer, err := logger.New(cfg.Log.Dir, cfg.Log.Level)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("init logger")
	}
	defer closer.Close()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	st, err := store.Open(cfg.Database.Path, time.Duration(cfg.Database.BusyTimeoutMS)*time.Millisecond, log)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	res := settings.NewResolver(st, bus, log)
	if err := res.Seed(ctx); err != nil {
		return err
	}
	coord := backup.NewCoordinator(st, bus, cfg.Backup.Dir, cfg.Backup.Keep, log)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.Router(&handlers.Deps{
			Roster:   services.NewRoster(st, res, bus, log),
			Engine:   schedule.NewEngine(st, bus, log),
			Reports:  report.New(st),
			Settings: res,
			Backup:   coord,
			Bus:      bus,
			Log:      log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", st.Path()).Msg("classbook listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}

	if cfg.Backup.OnExit {
		if _, err := coord.Snapshot(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("snapshot on exit")
		}
	}
	return nil
}
