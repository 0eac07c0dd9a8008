package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dynasty-gen/internal/config"
	"github.com/talgya/dynasty-gen/internal/persistence"
)

func TestGenerateWritesEverything(t *testing.T) {
	dir := t.TempDir()
	r := config.Default()
	r.Seed = 5
	r.Output.DB = filepath.Join(dir, "runs.db")
	r.Output.GEDCOM = filepath.Join(dir, "voss.ged")
	r.Output.CK3 = filepath.Join(dir, "voss.txt")

	var buf bytes.Buffer
	require.NoError(t, generate(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "Dynasty Voss, founded by ")
	assert.Contains(t, out, "GENERATION")
	assert.Contains(t, out, "0th")
	assert.Contains(t, out, "Saved run ")
	assert.Contains(t, out, "Wrote GEDCOM to ")
	assert.Contains(t, out, "Wrote CK3 history to ")

	ged, err := os.ReadFile(r.Output.GEDCOM)
	require.NoError(t, err)
	assert.Contains(t, string(ged), "0 TRLR")

	ck3, err := os.ReadFile(r.Output.CK3)
	require.NoError(t, err)
	assert.Contains(t, string(ck3), "voss_character_1 = {")

	db, err := persistence.Open(r.Output.DB)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(5), runs[0].Seed)
}

func TestGenerateIsReproducible(t *testing.T) {
	r := config.Default()
	r.Seed = 12

	var a, b bytes.Buffer
	require.NoError(t, generate(&a, r))
	require.NoError(t, generate(&b, r))
	assert.Equal(t, a.String(), b.String())
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	r := config.Default()
	r.Dates.End = "900"
	assert.Error(t, generate(&bytes.Buffer{}, r))

	r = config.Default()
	r.Output.NamesDir = t.TempDir()
	assert.Error(t, generate(&bytes.Buffer{}, r))
}
