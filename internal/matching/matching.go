// Package matching ranks candidate tag stores against a reference store,
// e.g. a locally tagged file against catalog candidates.
package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
	"golang.org/x/sync/errgroup"
)

// Candidate is a store to be scored, identified by ID.
type Candidate struct {
	ID       string
	Metadata *metadata.Metadata
}

// Result is the score of one candidate.
type Result struct {
	ID    string
	Score float64
}

// Ranker scores candidates concurrently.
type Ranker struct {
	comparator *metadata.Comparator
	workers    int
	minScore   float64
	logger     logging.Logger
}

// NewRanker returns a Ranker. A nil comparator means
// metadata.DefaultComparator and workers below one mean one.
func NewRanker(c *metadata.Comparator, workers int, minScore float64, logger logging.Logger) *Ranker {
	if c == nil {
		c = metadata.DefaultComparator()
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ranker{comparator: c, workers: workers, minScore: minScore, logger: logger}
}

// Rank scores every candidate against ref and returns the results scoring at
// least the minimum score, best first. Ties are ordered by ID. Each task
// works on its own copy of ref; candidates must not be mutated while Rank
// runs.
func (r *Ranker) Rank(ctx context.Context, ref *metadata.Metadata, candidates []Candidate) ([]Result, error) {
	for _, c := range candidates {
		if c.Metadata == nil {
			return nil, fmt.Errorf("candidate %q has no metadata", c.ID)
		}
	}

	scores := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range candidates {
		local := ref.Clone()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = r.comparator.Compare(local, c.Metadata)
			r.logger.Debug(gctx, "scored candidate", "candidate", c.ID, "score", scores[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking interrupted: %w", err)
	}

	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		if scores[i] >= r.minScore {
			results = append(results, Result{ID: c.ID, Score: scores[i]})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	r.logger.Info(ctx, "ranked candidates", "candidates", len(candidates), "matches", len(results))
	return results, nil
}

// Best returns the highest ranked candidate, or common.ErrorNotFound when
// none reaches the minimum score.
func (r *Ranker) Best(ctx context.Context, ref *metadata.Metadata, candidates []Candidate) (Result, error) {
	results, err := r.Rank(ctx, ref, candidates)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, fmt.Errorf("no candidate above %.2f: %w", r.minScore, common.ErrorNotFound)
	}
	return results[0], nil
}
