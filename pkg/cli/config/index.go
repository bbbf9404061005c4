package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/repository/index"
	"github.com/urfave/cli/v3"
)

// Index holds vector index configuration
type Index struct {
	path string
}

// Flags returns CLI flags for the vector index
func (i *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-db",
			Usage:       "Path to the vector index database",
			Value:       "screen_recordings/index.db",
			Sources:     cli.EnvVars("RETRACE_INDEX_DB"),
			Destination: &i.path,
		},
	}
}

// LogValue implements slog.LogValuer
func (i Index) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", i.path))
}

// Configure opens the vector index
func (i *Index) Configure() (*index.Index, error) {
	idx, err := index.New(i.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open vector index", goerr.V("path", i.path))
	}
	return idx, nil
}
