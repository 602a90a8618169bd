package tracks

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/config"
	"github.com/dmitrijs2005/trackmeta/internal/dbx"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
	"github.com/dmitrijs2005/trackmeta/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleTrack() *metadata.Metadata {
	m := metadata.New(metadata.WithLength(215000))
	m.Assign("title", "Song")
	m.Set("artist", []string{"A", "B"})
	m.Set("empty", []string{})
	m.Assign("~hidden", "h")
	m.Delete("comment")
	return m
}

func TestSaveAndGet_RoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRepository(db)
	ctx := context.Background()

	want := sampleTrack()
	require.NoError(t, r.Save(ctx, "t1", want))

	got, err := r.Get(ctx, "t1")
	require.NoError(t, err)

	if diff := cmp.Diff(want.RawItems(), got.RawItems()); diff != "" {
		t.Fatalf("raw items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"comment"}, got.DeletedTags())
	assert.True(t, got.Contains("empty"))
	ms, ok := got.Length()
	assert.True(t, ok)
	assert.Equal(t, 215000, ms)
}

func TestSave_ReplacesPreviousContent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "t1", sampleTrack()))

	next := metadata.New()
	next.Assign("title", "Other")
	require.NoError(t, r.Save(ctx, "t1", next))

	got, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, got.Keys())
	assert.Empty(t, got.DeletedTags())
	_, ok := got.Length()
	assert.False(t, ok)
}

func TestSave_InsideTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, NewSQLRepository(tx).Save(ctx, "t1", sampleTrack()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewSQLRepository(db).Get(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_NotFound(t *testing.T) {
	r := NewSQLRepository(setupDB(t))

	_, err := r.Get(context.Background(), "absent")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "t1", sampleTrack()))
	require.NoError(t, r.Delete(ctx, "t1"))

	_, err := r.Get(ctx, "t1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM track_tag_values`).Scan(&n))
	assert.Zero(t, n)

	require.ErrorIs(t, r.Delete(ctx, "t1"), common.ErrorNotFound)
}

func TestList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRepository(db)
	ctx := context.Background()

	ids, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, r.Save(ctx, "b", metadata.New()))
	require.NoError(t, r.Save(ctx, "a", metadata.New()))

	ids, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db), mock
}

func TestSave_DBErrorsWrapped(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert", func(t *testing.T) {
		r, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO tracks`).WillReturnError(errors.New("down"))

		err := r.Save(ctx, "t1", metadata.New())
		require.ErrorContains(t, err, "failed to upsert track[t1]")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete values", func(t *testing.T) {
		r, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO tracks`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM track_tag_values`).WillReturnError(errors.New("down"))

		err := r.Save(ctx, "t1", metadata.New())
		require.ErrorContains(t, err, "failed to delete values of track[t1]")
	})

	t.Run("insert value", func(t *testing.T) {
		r, mock := newRepoWithMock(t)
		mock.ExpectExec(`INSERT INTO tracks`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM track_tag_values`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM track_tags`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO track_tags`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO track_tag_values`).WillReturnError(errors.New("down"))

		m := metadata.New()
		m.Assign("title", "x")
		err := r.Save(ctx, "t1", m)
		require.ErrorContains(t, err, "failed to insert value of track[t1] tag[title]")
	})
}

func TestGet_DBErrorWrapped(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT length_ms FROM tracks`).WillReturnError(errors.New("down"))

	_, err := r.Get(context.Background(), "t1")
	require.ErrorContains(t, err, "failed to get track[t1]")
}

func TestList_DBErrorWrapped(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT id FROM tracks`).WillReturnError(errors.New("down"))

	_, err := r.List(context.Background())
	require.ErrorContains(t, err, "failed to list tracks")
}

func TestDelete_RowsAffectedError(t *testing.T) {
	r, mock := newRepoWithMock(t)
	mock.ExpectExec(`DELETE FROM track_tag_values`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM track_tags`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM tracks`).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	err := r.Delete(context.Background(), "t1")
	require.ErrorContains(t, err, "failed to get rows affected")
}
