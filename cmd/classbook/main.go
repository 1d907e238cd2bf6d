package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/backup"
	"github.com/lojf/classbook/internal/config"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/report"
	"github.com/lojf/classbook/internal/settings"
	"github.com/lojf/classbook/internal/store"
)

var log zerolog.Logger

func main() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	errAndDie(err)

	st, err := store.Open(cfg.Database.Path, time.Duration(cfg.Database.BusyTimeoutMS)*time.Millisecond, log)
	errAndDie(err)

	bus := events.NewBus()
	res := settings.NewResolver(st, bus, log)
	errAndDie(res.Seed(context.Background()))
	cli := commandLine{
		settings: res,
		backup:   backup.NewCoordinator(st, bus, cfg.Backup.Dir, cfg.Backup.Keep, log),
		reports:  report.New(st),
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	st.Close()
	if err != nil {
		if err != errHelp {
			log.Error().Err(err).Msg("command failed")
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
