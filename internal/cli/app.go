package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/trackmeta/internal/archive"
	"github.com/dmitrijs2005/trackmeta/internal/config"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/dmitrijs2005/trackmeta/internal/matching"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
	"github.com/dmitrijs2005/trackmeta/internal/services"
	"github.com/dmitrijs2005/trackmeta/internal/storage"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type App struct {
	config  *config.Config
	db      *sql.DB
	tracks  services.TrackService
	logger  logging.Logger
	prompt  bool
	scanner *bufio.Scanner
}

// NewApp opens the configured database and builds the track service.
// Archiving is enabled when an S3 bucket is configured.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := storage.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "driver", c.DatabaseDriver, "error", err)
		return nil, err
	}

	comparator := metadata.DefaultComparator().WithOverrides(c.Weights)
	opts := services.Options{
		Comparator:   comparator,
		Ranker:       matching.NewRanker(comparator, c.MatchWorkers, c.MinScore, logger),
		MatchTimeout: c.MatchTimeout,
		Logger:       logger,
	}

	if c.S3Bucket != "" {
		arch, err := archive.New(ctx, archive.Settings{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		opts.Archiver = arch
	}

	return &App{
		config:  c,
		db:      db,
		tracks:  services.NewTrackService(db, opts),
		logger:  logger,
		prompt:  isTerminal(int(os.Stdin.Fd())),
		scanner: bufio.NewScanner(os.Stdin),
	}, nil
}

// Run starts the REPL and closes the database when it returns.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "failed to close database", "error", err)
		}
	}()

	if a.prompt {
		printlnFn("trackmeta (type 'help' for commands)")
	}
	runREPL(ctx, a, a.prompt, a.scanner)
}
