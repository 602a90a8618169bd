// Package tracks persists tag stores. One track is a row in tracks plus one
// track_tags row per present or deleted tag and one track_tag_values row per
// value, so explicitly empty tags and deletions survive a round trip.
package tracks

import (
	"context"

	"github.com/dmitrijs2005/trackmeta/internal/metadata"
)

// Repository stores tag stores by track id.
type Repository interface {
	Save(ctx context.Context, id string, m *metadata.Metadata) error
	Get(ctx context.Context, id string) (*metadata.Metadata, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
