package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/demography"
)

func TestDefaultIsValid(t *testing.T) {
	r := Default()
	require.NoError(t, r.Validate())

	cfg, err := r.Engine()
	require.NoError(t, err)
	assert.Equal(t, "Voss", cfg.Dynasty)
	assert.Equal(t, calendar.YearStart(1000), cfg.FounderBirthDay)
	assert.Equal(t, calendar.Start1066, cfg.MaleOnlyStart)
	assert.Equal(t, calendar.MustDate(1120, 1, 1), cfg.NormalStart)
	assert.Equal(t, calendar.Start1178, cfg.End)

	normal, err := demography.LookupPreset(demography.PresetNormal)
	require.NoError(t, err)
	assert.Equal(t, normal.Mortality, cfg.Mortality)
	assert.Equal(t, demography.DefaultTunables(), cfg.Tunables)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 7
preset: generous
founder:
  birth_year: 900
  dynasty: Hale
  culture: german
dates:
  male_only_start: "950"
  normal_start: "1000.6"
  end: "1066.9.15"
mortality:
  early_range: {low: 5, high: 20}
  normal_range: {low: 40, high: 60}
  early_probability: 0.2
fertility:
  children:
    0: 0.5
    2: 0.5
output:
  gedcom: hale.ged
  tree_depth: 4
`), 0o644))

	v := NewViper(path)
	require.NoError(t, ReadFile(v))
	r, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, int64(7), r.Seed)
	assert.Equal(t, "generous", r.Preset)
	assert.Equal(t, Founder{BirthYear: 900, Dynasty: "Hale", Culture: "german"}, r.Founder)
	assert.Equal(t, "hale.ged", r.Output.GEDCOM)
	assert.Equal(t, 4, r.Output.TreeDepth)
	assert.Equal(t, 1000, r.MaxGenerations, "defaults fill unset keys")

	cfg, err := r.Engine()
	require.NoError(t, err)
	assert.Equal(t, calendar.MustDate(950, 1, 1), cfg.MaleOnlyStart)
	assert.Equal(t, calendar.MustDate(1000, 6, 1), cfg.NormalStart)
	assert.Equal(t, calendar.Start1066, cfg.End)
	assert.Equal(t, demography.AgeRange{Low: 5, High: 20}, cfg.Mortality.EarlyRange)
	assert.InDelta(t, 0.2, cfg.Mortality.EarlyProbability, 1e-12)
	assert.Equal(t, demography.Distribution{0: 0.5, 2: 0.5}, cfg.Fertility.Children)
}

func TestPartialTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tunables:
  chance_of_son: 0.6
  mainline_heirs:
    1: 1
`), 0o644))

	v := NewViper(path)
	require.NoError(t, ReadFile(v))
	r, err := Load(v)
	require.NoError(t, err)

	cfg, err := r.Engine()
	require.NoError(t, err)
	want := demography.DefaultTunables()
	want.ChanceOfSon = 0.6
	want.MainlineHeirs = demography.Distribution{1: 1}
	assert.Equal(t, want, cfg.Tunables)
}

func TestRunClone(t *testing.T) {
	r := Default()
	r.Fertility = &demography.FertilityProfile{Children: demography.Distribution{2: 1}}
	tu := demography.DefaultTunables()
	r.Tunables = &tu
	r.Mortality = &demography.MortalityProfile{
		EarlyRange:  demography.AgeRange{Low: 1, High: 5},
		NormalRange: demography.AgeRange{Low: 50, High: 60},
	}

	c := r.Clone()
	require.Equal(t, r, c)
	c.Fertility.Children[9] = 5
	c.Tunables.AgeWeights[14] = 99
	c.Mortality.EarlyProbability = 0.5

	assert.Equal(t, demography.Distribution{2: 1}, r.Fertility.Children)
	assert.Equal(t, 0.010, r.Tunables.AgeWeights[14])
	assert.Zero(t, r.Mortality.EarlyProbability)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DYNASTYGEN_SEED", "99")
	t.Setenv("DYNASTYGEN_FOUNDER_DYNASTY", "Marr")

	v := NewViper(filepath.Join(t.TempDir(), "none.yaml"))
	r, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, int64(99), r.Seed)
	assert.Equal(t, "Marr", r.Founder.Dynasty)
	assert.Equal(t, demography.PresetNormal, r.Preset)
}

func TestReadFile(t *testing.T) {
	assert.Error(t, ReadFile(NewViper(filepath.Join(t.TempDir(), "missing.yaml"))))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Run)
		want   error
	}{
		{"unknown preset", func(r *Run) { r.Preset = "lavish" }, demography.ErrInvalidConfig},
		{"bad date", func(r *Run) { r.Dates.End = "soon" }, calendar.ErrInvalidDate},
		{"founder after male-only", func(r *Run) { r.Founder.BirthYear = 1070 }, demography.ErrInvalidConfig},
		{"male-only after normal", func(r *Run) { r.Dates.MaleOnlyStart = "1130" }, demography.ErrInvalidConfig},
		{"normal after end", func(r *Run) { r.Dates.NormalStart = "1200" }, demography.ErrInvalidConfig},
		{"no dynasty", func(r *Run) { r.Founder.Dynasty = "" }, demography.ErrInvalidConfig},
		{"bad override", func(r *Run) {
			r.Fertility = &demography.FertilityProfile{Children: demography.Distribution{-1: 1}}
		}, demography.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestYAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "seed: 1\n")
	assert.Contains(t, s, "preset: normal\n")
	assert.Contains(t, s, "male_only_start: 1066.9.15\n")
	assert.NotContains(t, s, "mortality:")
}
