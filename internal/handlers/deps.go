package handlers

import (
	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/backup"
	"github.com/lojf/classbook/internal/events"
	"github.com/lojf/classbook/internal/report"
	"github.com/lojf/classbook/internal/schedule"
	"github.com/lojf/classbook/internal/services"
	"github.com/lojf/classbook/internal/settings"
)

// Deps is everything the handlers call into.
type Deps struct {
	Roster   *services.Roster
	Engine   *schedule.Engine
	Reports  *report.Reporter
	Settings *settings.Resolver
	Backup   *backup.Coordinator
	Bus      *events.Bus
	Log      zerolog.Logger
}
