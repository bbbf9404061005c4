package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/repository/memory"
	"github.com/retrace-dev/retrace/pkg/repository/sqlite"
	"github.com/urfave/cli/v3"
)

// Store holds event store configuration
type Store struct {
	backend string
	dbPath  string
}

// Flags returns CLI flags for the event store
func (s *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store-backend",
			Usage:       "Event store backend [sqlite, memory]",
			Value:       "sqlite",
			Sources:     cli.EnvVars("RETRACE_STORE_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Path to the activity log database",
			Value:       "screen_recordings/activity_log.db",
			Sources:     cli.EnvVars("RETRACE_DB"),
			Destination: &s.dbPath,
		},
	}
}

// LogValue implements slog.LogValuer
func (s Store) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", s.backend),
		slog.String("db", s.dbPath),
	)
}

// Configure opens the event store. The sqlite backend runs its additive
// schema migration on open.
func (s *Store) Configure() (interfaces.EventStore, error) {
	switch s.backend {
	case "sqlite", "":
		store, err := sqlite.New(s.dbPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open event store", goerr.V("path", s.dbPath))
		}
		return store, nil

	case "memory":
		return memory.New(), nil

	default:
		return nil, goerr.New("unknown store backend", goerr.V("backend", s.backend))
	}
}
