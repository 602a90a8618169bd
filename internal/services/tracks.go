// Package services implements the track library operations used by the CLI:
// importing, editing, comparing, matching and archiving tag stores.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/dbx"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/dmitrijs2005/trackmeta/internal/matching"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
	"github.com/dmitrijs2005/trackmeta/internal/repositories/tracks"
	"github.com/google/uuid"
)

// ErrArchiveDisabled is returned by archive operations when no archiver is
// configured.
var ErrArchiveDisabled = errors.New("archive is not configured")

// ImportDocument is the JSON import format: a plain tag mapping plus the
// optional deleted tags and length in milliseconds.
type ImportDocument struct {
	Tags    map[string]any `json:"tags"`
	Deleted []string       `json:"deleted"`
	Length  *int           `json:"length"`
}

// Archiver stores snapshots outside the database.
type Archiver interface {
	Put(ctx context.Context, id string, m *metadata.Metadata) error
	Get(ctx context.Context, id string) (*metadata.Metadata, error)
}

type TrackService interface {
	Import(ctx context.Context, doc ImportDocument) (string, error)
	Get(ctx context.Context, id string) (*metadata.Metadata, error)
	List(ctx context.Context) ([]string, error)
	Edit(ctx context.Context, id string, fn func(m *metadata.Metadata) error) error
	Remove(ctx context.Context, id string) error
	Compare(ctx context.Context, a, b string) (float64, error)
	Match(ctx context.Context, id string) ([]matching.Result, error)
	Archive(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// Options carries the collaborators of a TrackService.
type Options struct {
	Comparator   *metadata.Comparator
	Ranker       *matching.Ranker
	Archiver     Archiver
	MatchTimeout time.Duration
	Logger       logging.Logger
}

type trackService struct {
	db           *sql.DB
	repo         func(db dbx.DBTX) tracks.Repository
	comparator   *metadata.Comparator
	ranker       *matching.Ranker
	archiver     Archiver
	matchTimeout time.Duration
	logger       logging.Logger
}

// newUUID is a seam for id generation.
var newUUID = uuid.NewString

func NewTrackService(db *sql.DB, o Options) TrackService {
	if o.Comparator == nil {
		o.Comparator = metadata.DefaultComparator()
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.Ranker == nil {
		o.Ranker = matching.NewRanker(o.Comparator, 1, 0, o.Logger)
	}
	return &trackService{
		db: db,
		repo: func(db dbx.DBTX) tracks.Repository {
			return tracks.NewSQLRepository(db)
		},
		comparator:   o.Comparator,
		ranker:       o.Ranker,
		archiver:     o.Archiver,
		matchTimeout: o.MatchTimeout,
		logger:       o.Logger,
	}
}

func (s *trackService) Import(ctx context.Context, doc ImportDocument) (string, error) {
	var opts []metadata.Option
	if len(doc.Deleted) > 0 {
		opts = append(opts, metadata.WithDeleted(doc.Deleted...))
	}
	if doc.Length != nil {
		opts = append(opts, metadata.WithLength(*doc.Length))
	}

	m, err := metadata.FromMap(doc.Tags, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid import: %w", err)
	}

	id := newUUID()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Save(ctx, id, m)
	})
	if err != nil {
		return "", fmt.Errorf("saving error: %w", err)
	}

	s.logger.Info(ctx, "imported track", "track", id, "tags", m.Len())
	return id, nil
}

func (s *trackService) Get(ctx context.Context, id string) (*metadata.Metadata, error) {
	return s.repo(s.db).Get(ctx, id)
}

func (s *trackService) List(ctx context.Context) ([]string, error) {
	return s.repo(s.db).List(ctx)
}

// Edit loads a track, applies fn and saves the result in one transaction.
// Nothing is saved when fn fails.
func (s *trackService) Edit(ctx context.Context, id string, fn func(m *metadata.Metadata) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		m, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		return repo.Save(ctx, id, m)
	})
}

func (s *trackService) Remove(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Delete(ctx, id)
	})
}

func (s *trackService) Compare(ctx context.Context, a, b string) (float64, error) {
	repo := s.repo(s.db)
	ma, err := repo.Get(ctx, a)
	if err != nil {
		return 0, err
	}
	mb, err := repo.Get(ctx, b)
	if err != nil {
		return 0, err
	}
	return s.comparator.Compare(ma, mb), nil
}

// Match ranks every other stored track against id.
func (s *trackService) Match(ctx context.Context, id string) ([]matching.Result, error) {
	if s.matchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.matchTimeout)
		defer cancel()
	}

	repo := s.repo(s.db)
	ref, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ids, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]matching.Candidate, 0, len(ids))
	for _, other := range ids {
		if other == id {
			continue
		}
		m, err := repo.Get(ctx, other)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, matching.Candidate{ID: other, Metadata: m})
	}

	return s.ranker.Rank(ctx, ref, candidates)
}

func (s *trackService) Archive(ctx context.Context, id string) error {
	if s.archiver == nil {
		return ErrArchiveDisabled
	}
	m, err := s.repo(s.db).Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.archiver.Put(ctx, id, m); err != nil {
		return err
	}
	s.logger.Info(ctx, "archived track", "track", id)
	return nil
}

// Restore merges the archived snapshot of id into the stored track, or
// stores it as is when the track no longer exists locally.
func (s *trackService) Restore(ctx context.Context, id string) error {
	if s.archiver == nil {
		return ErrArchiveDisabled
	}
	snapshot, err := s.archiver.Get(ctx, id)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		m, err := repo.Get(ctx, id)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			m = metadata.New()
		case err != nil:
			return err
		}
		m.Update(snapshot)
		s.logger.Info(ctx, "restored track", "track", id, "deleted", len(snapshot.DeletedTags()))
		return repo.Save(ctx, id, m)
	})
}
