package cli

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/config"
	"github.com/dmitrijs2005/trackmeta/internal/services"
	"github.com/dmitrijs2005/trackmeta/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db, err := storage.Open(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &App{db: db, tracks: services.NewTrackService(db, services.Options{})}
}

func stubReadFile(t *testing.T, files map[string]string) {
	t.Helper()
	orig := readFile
	readFile = func(name string) ([]byte, error) {
		data, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(data), nil
	}
	t.Cleanup(func() { readFile = orig })
}

func importTrack(t *testing.T, a *App, doc string) string {
	t.Helper()
	stubReadFile(t, map[string]string{"track.json": doc})
	out := captureOutput(t)
	require.NoError(t, a.Import(context.Background(), []string{"track.json"}))
	require.Len(t, *out, 1)
	return (*out)[0][len("Imported "):]
}

func TestImportAndShow(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	id := importTrack(t, a, `{
		"tags": {"title": "Song", "artist": ["A", "B"], "tracknumber": 3},
		"deleted": ["comment"],
		"length": 215000
	}`)

	out := captureOutput(t)
	require.NoError(t, a.Show(ctx, []string{id}))
	assert.Equal(t, []string{
		"artist: A; B",
		"title: Song",
		"tracknumber: 3",
		"deleted: comment",
		"length: 215000 ms",
	}, *out)
}

func TestImport_Errors(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	stubReadFile(t, map[string]string{"bad.json": `{"tags": [`, "bool.json": `{"tags": {"k": true}}`})

	assert.ErrorContains(t, a.Import(ctx, nil), "usage: import")
	assert.ErrorIs(t, a.Import(ctx, []string{"missing.json"}), os.ErrNotExist)
	assert.ErrorContains(t, a.Import(ctx, []string{"bad.json"}), "failed to parse bad.json")
	assert.ErrorIs(t, a.Import(ctx, []string{"bool.json"}), common.ErrUnsupportedValue)
}

func TestEditCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	id := importTrack(t, a, `{"tags": {"title": " Song ", "album": "X", "comment": "c"}}`)
	captureOutput(t)

	require.NoError(t, a.Set(ctx, []string{id, "title", "Other", "Song"}))
	require.NoError(t, a.Add(ctx, []string{id, "artist", "A"}))
	require.NoError(t, a.Add(ctx, []string{id, "artist", "B"}))
	require.NoError(t, a.Del(ctx, []string{id, "comment"}))
	require.NoError(t, a.Set(ctx, []string{id, "album"}))
	require.NoError(t, a.Length(ctx, []string{id, "1000"}))
	require.NoError(t, a.Set(ctx, []string{id, "genre", "rock"}))

	m, err := a.tracks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Other Song", m.Get("title"))
	assert.Equal(t, []string{"A", "B"}, m.GetAll("artist"))
	assert.True(t, m.IsDeleted("comment"))
	assert.True(t, m.IsDeleted("album"), "assigning nothing deletes a present tag")
	ms, ok := m.Length()
	assert.True(t, ok)
	assert.Equal(t, 1000, ms)
	assert.Equal(t, "rock", m.Get("genre"))
}

func TestTrim(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	id := importTrack(t, a, `{"tags": {"title": " Song ", "artist": ["  A", "B  "]}}`)

	require.NoError(t, a.Trim(ctx, []string{id}))
	m, err := a.tracks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Song", m.Get("title"))
	assert.Equal(t, []string{"A", "B"}, m.GetAll("artist"))
}

func TestEditCommands_Usage(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	assert.ErrorContains(t, a.Show(ctx, nil), "usage: show")
	assert.ErrorContains(t, a.Set(ctx, []string{"id"}), "usage: set")
	assert.ErrorContains(t, a.Add(ctx, []string{"id", "tag"}), "usage: add")
	assert.ErrorContains(t, a.Del(ctx, []string{"id"}), "usage: del")
	assert.ErrorContains(t, a.Length(ctx, []string{"id"}), "usage: length")
	assert.ErrorContains(t, a.Length(ctx, []string{"id", "-5"}), "invalid length")
	assert.ErrorContains(t, a.Trim(ctx, nil), "usage: trim")
	assert.ErrorContains(t, a.Remove(ctx, nil), "usage: rm")
	assert.ErrorContains(t, a.Compare(ctx, []string{"a"}), "usage: compare")
	assert.ErrorContains(t, a.Match(ctx, nil), "usage: match")
	assert.ErrorContains(t, a.Archive(ctx, nil), "usage: archive")
	assert.ErrorContains(t, a.Restore(ctx, nil), "usage: restore")

	assert.ErrorIs(t, a.Show(ctx, []string{"absent"}), common.ErrorNotFound)
	assert.ErrorIs(t, a.Set(ctx, []string{"absent", "title", "x"}), common.ErrorNotFound)
}

func TestListCompareMatchRemove(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	first := importTrack(t, a, `{"tags": {"title": "Song", "tracknumber": "1"}, "length": 200000}`)
	second := importTrack(t, a, `{"tags": {"title": "Song", "tracknumber": "01"}, "length": 200000}`)

	out := captureOutput(t)
	require.NoError(t, a.List(ctx, nil))
	assert.ElementsMatch(t, []string{first, second}, *out)

	out = captureOutput(t)
	require.NoError(t, a.Compare(ctx, []string{first, second}))
	assert.Equal(t, []string{"1.0000"}, *out)

	out = captureOutput(t)
	require.NoError(t, a.Match(ctx, []string{first}))
	assert.Equal(t, []string{"1.0000 " + second}, *out)

	require.NoError(t, a.Remove(ctx, []string{second}))
	out = captureOutput(t)
	require.NoError(t, a.Match(ctx, []string{first}))
	assert.Equal(t, []string{"No matches"}, *out)
}

func TestArchive_NotConfigured(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	assert.ErrorIs(t, a.Archive(ctx, []string{"x"}), services.ErrArchiveDisabled)
	assert.ErrorIs(t, a.Restore(ctx, []string{"x"}), services.ErrArchiveDisabled)
}

func TestSet_KeepsInnerWhitespaceFromREPL(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	id := importTrack(t, a, `{"tags": {"title": "Song"}}`)

	input := "set " + id + " title a  b\nadd " + id + " artist  X  Y \n"
	runREPL(ctx, a, false, bufio.NewScanner(strings.NewReader(input)))

	m, err := a.tracks.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a  b", m.Get("title"))
	assert.Equal(t, []string{"X  Y"}, m.GetAll("artist"))
}
