package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/snowpit-service/internal/adapter/filestore"
	"github.com/couchcryptid/snowpit-service/internal/config"
	"github.com/couchcryptid/snowpit-service/internal/domain"
)

func collection(t *testing.T) domain.Collection {
	t.Helper()
	c, err := domain.ParseCollection("Col de Porte", "2026-02-04")
	require.NoError(t, err)
	return c
}

func goodPit(id string) domain.SnowPit {
	return domain.SnowPit{
		ID:        id,
		Date:      time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
		SnowDepth: 50,
		Layers: []domain.Layer{
			{Bottom: 0, Top: 20, Grain: domain.GrainDH, Hardness: domain.Hardness1F},
			{Bottom: 20, Top: 50, Grain: domain.GrainPP, Hardness: domain.HardnessF},
		},
	}
}

func TestCheckCollection_Clean(t *testing.T) {
	r := &report{collection: collection(t)}
	checkCollection(r, []domain.SnowPit{goodPit("a"), goodPit("b")})
	assert.True(t, r.passed(), r.errors)
}

func TestCheckCollection_Problems(t *testing.T) {
	cold := -1.0
	misdated := goodPit("c")
	misdated.Date = time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	uncovered := goodPit("d")
	uncovered.SnowDepth = 60
	frozen := goodPit("e")
	frozen.AirTemperature = &cold

	r := &report{collection: collection(t)}
	checkCollection(r, []domain.SnowPit{goodPit("a"), goodPit("a"), misdated, uncovered, frozen, goodPit("")})

	require.Len(t, r.errors, 5)
	assert.Contains(t, r.errors[0], "a: duplicate id")
	assert.Contains(t, r.errors[1], `c: date "2026-02-05"`)
	assert.Contains(t, r.errors[2], "d: ")
	assert.Contains(t, r.errors[3], "e: ")
	assert.Contains(t, r.errors[4], "#6: missing id")
}

func TestCheckCollection_Empty(t *testing.T) {
	r := &report{collection: collection(t)}
	checkCollection(r, nil)
	assert.False(t, r.passed())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	fs := filestore.New(dir, slog.Default())
	ctx := context.Background()
	_, err := fs.Upsert(ctx, collection(t), goodPit("a"))
	require.NoError(t, err)

	cfg := &config.Config{StoreDriver: config.StoreFile, DataDir: dir, SQLitePath: filepath.Join(dir, "unused.db")}
	var out bytes.Buffer
	assert.Equal(t, 0, run(ctx, cfg, &out))
	assert.Contains(t, out.String(), "Collections: 1, pits: 1")
	assert.Contains(t, out.String(), "All collections passed.")

	bad := goodPit("b")
	bad.SnowDepth = 80
	_, err = fs.Upsert(ctx, collection(t), bad)
	require.NoError(t, err)

	out.Reset()
	assert.Equal(t, 1, run(ctx, cfg, &out))
	assert.Contains(t, out.String(), "Integrity check FAILED.")
	assert.Contains(t, out.String(), "--- Col de Porte/2025-2026/2026-02-04 ---")
}
