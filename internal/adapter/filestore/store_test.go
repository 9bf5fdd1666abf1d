package filestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, slog.Default()), dir
}

func testCollection(t *testing.T) domain.Collection {
	t.Helper()
	c, err := domain.ParseCollection("Col de Porte", "2026-02-04")
	require.NoError(t, err)
	return c
}

func testPit(id string, depth float64) domain.SnowPit {
	air := 268.15
	density := 0.32
	return domain.SnowPit{
		ID:             id,
		Date:           time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
		SnowDepth:      depth,
		AirTemperature: &air,
		Layers: []domain.Layer{
			{Bottom: 0, Top: depth, Grain: domain.GrainRG, Density: &density, Hardness: domain.Hardness1F},
		},
	}
}

func TestStore_LoadMissingCollectionIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	pits, err := s.Load(context.Background(), testCollection(t))
	require.NoError(t, err)
	assert.NotNil(t, pits)
	assert.Empty(t, pits)
}

func TestStore_UpsertCreatesThenUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)
	c := testCollection(t)

	action, err := s.Upsert(ctx, c, testPit("a", 100))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreated, action)

	action, err = s.Upsert(ctx, c, testPit("b", 80))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCreated, action)

	action, err = s.Upsert(ctx, c, testPit("a", 120))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, action)

	pits, err := s.Load(ctx, c)
	require.NoError(t, err)
	require.Len(t, pits, 2)
	assert.Equal(t, "a", pits[0].ID)
	assert.InDelta(t, 120, pits[0].SnowDepth, 1e-9)
	assert.Equal(t, "b", pits[1].ID)

	path := filepath.Join(dir, "Col de Porte", "2025-2026", "clean_data", "snowpits_2026-02-04.json")
	assert.Equal(t, path, s.Path(c))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"a\",")
	assert.Contains(t, string(data), `"SD (cm)": 120`)
}

func TestStore_UpsertLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c := testCollection(t)

	_, err := s.Upsert(ctx, c, testPit("a", 100))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(s.Path(c)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snowpits_2026-02-04.json", entries[0].Name())
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	c := testCollection(t)

	_, err := s.Upsert(ctx, c, testPit("a", 100))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, c, testPit("b", 80))
	require.NoError(t, err)

	emptied, err := s.Delete(ctx, c, "a")
	require.NoError(t, err)
	assert.False(t, emptied)
	assert.FileExists(t, s.Path(c))

	_, err = s.Delete(ctx, c, "a")
	require.ErrorIs(t, err, domain.ErrPitNotFound)

	emptied, err = s.Delete(ctx, c, "b")
	require.NoError(t, err)
	assert.True(t, emptied)
	assert.NoFileExists(t, s.Path(c))

	pits, err := s.Load(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, pits)
}

func TestStore_DeleteFromMissingCollection(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Delete(context.Background(), testCollection(t), "nope")
	assert.ErrorIs(t, err, domain.ErrPitNotFound)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	s, _ := newTestStore(t)
	c := testCollection(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path(c)), 0o755))
	require.NoError(t, os.WriteFile(s.Path(c), []byte("{not json"), 0o644))

	_, err := s.Load(context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode collection")
}

func TestStore_Collections(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestStore(t)

	for _, k := range [][2]string{
		{"Weissfluhjoch", "2026-01-10"},
		{"Col de Porte", "2026-02-04"},
		{"Col de Porte", "2025-03-01"},
	} {
		c, err := domain.ParseCollection(k[0], k[1])
		require.NoError(t, err)
		_, err = s.Upsert(ctx, c, testPit("x", 50))
		require.NoError(t, err)
	}
	// A file filed under the wrong season is ignored.
	stray := filepath.Join(dir, "Col de Porte", "2019-2020", "clean_data", "snowpits_2026-02-05.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(stray), 0o755))
	require.NoError(t, os.WriteFile(stray, []byte("[]"), 0o644))

	cs, err := s.Collections(ctx)
	require.NoError(t, err)
	got := make([]string, len(cs))
	for i, c := range cs {
		got[i] = c.String()
	}
	assert.Equal(t, []string{
		"Col de Porte/2024-2025/2025-03-01",
		"Col de Porte/2025-2026/2026-02-04",
		"Weissfluhjoch/2025-2026/2026-01-10",
	}, got)
}

func TestPlotPath(t *testing.T) {
	c := testCollection(t)
	tests := []struct {
		title, ext, want string
	}{
		{"Stratigraphic profile", "png", "Stratigraphic profile-2026-02-04.png"},
		{"Stratigraphic profile", ".pdf", "Stratigraphic profile-2026-02-04.pdf"},
		{"a/b", "svg", "a_b-2026-02-04.svg"},
		{"  ", "png", "snowpit-2026-02-04.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := PlotPath("/data", c, tt.title, tt.ext)
			assert.Equal(t, filepath.Join("/data", "Col de Porte", "2025-2026", "plot", tt.want), got)
		})
	}
}

func TestEnsureTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureTree(dir, []string{"Col de Porte", "Weissfluhjoch"}, []string{"2024-2025", "2025-2026"}))

	for _, site := range []string{"Col de Porte", "Weissfluhjoch"} {
		for _, season := range []string{"2024-2025", "2025-2026"} {
			assert.DirExists(t, filepath.Join(dir, site, season, "clean_data"))
			assert.DirExists(t, filepath.Join(dir, site, season, "plot"))
		}
	}
}

func TestEnsureTree_RejectsPathNames(t *testing.T) {
	tests := []struct {
		name    string
		sites   []string
		seasons []string
	}{
		{"parent site", []string{"Col de Porte", "../x"}, []string{"2025-2026"}},
		{"dot dot site", []string{".."}, []string{"2025-2026"}},
		{"backslash site", []string{`a\b`}, []string{"2025-2026"}},
		{"empty site", []string{""}, []string{"2025-2026"}},
		{"nested season", []string{"Col de Porte"}, []string{"2025/../../x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			base := filepath.Join(root, "data")

			err := EnsureTree(base, tt.sites, tt.seasons)
			require.ErrorIs(t, err, domain.ErrInvalidCollection)
			assert.NoDirExists(t, base)
			assert.NoDirExists(t, filepath.Join(root, "x"))
		})
	}
}

func TestStore_CheckReadiness(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "data")
	s := New(base, slog.Default())

	require.NoError(t, s.CheckReadiness(context.Background()))
	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	assert.Error(t, New(filepath.Join(blocker, "sub"), slog.Default()).CheckReadiness(context.Background()))
}
