package tracks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/dbx"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
)

// SQLRepository implements Repository on top of a DBTX. Queries use $N
// placeholders, which both SQLite and PostgreSQL accept.
//
// Save issues several statements; bind the repository to a transaction
// (see dbx.WithTx) to make it atomic.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository returns a repository bound to db.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Save replaces everything stored for id with the content of m.
func (r *SQLRepository) Save(ctx context.Context, id string, m *metadata.Metadata) error {
	var length sql.NullInt64
	if ms, ok := m.Length(); ok {
		length = sql.NullInt64{Int64: int64(ms), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracks (id, length_ms) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET length_ms = excluded.length_ms
	`, id, length)
	if err != nil {
		return fmt.Errorf("failed to upsert track[%s]: %w", id, err)
	}

	if err := r.deleteTags(ctx, id); err != nil {
		return err
	}

	ord := 0
	for _, item := range m.RawItems() {
		if err := r.insertTag(ctx, id, item.Key, ord, false); err != nil {
			return err
		}
		for idx, v := range item.Values {
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO track_tag_values (track_id, tag, idx, value) VALUES ($1, $2, $3, $4)`,
				id, item.Key, idx, v)
			if err != nil {
				return fmt.Errorf("failed to insert value of track[%s] tag[%s]: %w", id, item.Key, err)
			}
		}
		ord++
	}

	for _, tag := range m.DeletedTags() {
		if err := r.insertTag(ctx, id, tag, ord, true); err != nil {
			return err
		}
		ord++
	}

	return nil
}

func (r *SQLRepository) insertTag(ctx context.Context, id, tag string, ord int, deleted bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO track_tags (track_id, tag, ord, deleted) VALUES ($1, $2, $3, $4)`,
		id, tag, ord, deleted)
	if err != nil {
		return fmt.Errorf("failed to insert track[%s] tag[%s]: %w", id, tag, err)
	}
	return nil
}

func (r *SQLRepository) deleteTags(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM track_tag_values WHERE track_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete values of track[%s]: %w", id, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM track_tags WHERE track_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete tags of track[%s]: %w", id, err)
	}
	return nil
}

// Get loads the store saved under id. It returns common.ErrorNotFound when
// there is no such track.
func (r *SQLRepository) Get(ctx context.Context, id string) (*metadata.Metadata, error) {
	var length sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT length_ms FROM tracks WHERE id = $1`, id).Scan(&length)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("track[%s]: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track[%s]: %w", id, err)
	}

	values, err := r.values(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT tag, deleted FROM track_tags WHERE track_id = $1 ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags of track[%s]: %w", id, err)
	}
	defer rows.Close()

	m := metadata.New()
	for rows.Next() {
		var (
			tag     string
			deleted bool
		)
		if err := rows.Scan(&tag, &deleted); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		if deleted {
			m.Delete(tag)
		} else {
			m.Set(tag, values[tag])
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag rows: %w", err)
	}

	if length.Valid {
		m.SetLength(int(length.Int64))
	}
	return m, nil
}

func (r *SQLRepository) values(ctx context.Context, id string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag, value FROM track_tag_values WHERE track_id = $1 ORDER BY tag, idx`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select values of track[%s]: %w", id, err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var tag, value string
		if err := rows.Scan(&tag, &value); err != nil {
			return nil, fmt.Errorf("failed to scan value row: %w", err)
		}
		result[tag] = append(result[tag], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate value rows: %w", err)
	}
	return result, nil
}

// Delete removes a track. It returns common.ErrorNotFound when there is no
// such track.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	if err := r.deleteTags(ctx, id); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track[%s]: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("track[%s]: %w", id, common.ErrorNotFound)
	}
	return nil
}

// List returns all track ids in ascending order.
func (r *SQLRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate track rows: %w", err)
	}
	return ids, nil
}
