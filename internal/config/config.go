// Package config loads run settings from flags, environment and YAML files
// through viper and turns them into an engine configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/engine"
)

// Name is the config file base name and the environment prefix source.
const Name = "dynastygen"

// EnvPrefix prefixes environment overrides, e.g. DYNASTYGEN_SEED.
const EnvPrefix = "DYNASTYGEN"

// Founder describes generation zero.
type Founder struct {
	BirthYear int    `json:"birth_year" yaml:"birth_year" mapstructure:"birth_year"`
	Dynasty   string `json:"dynasty" yaml:"dynasty" mapstructure:"dynasty"`
	Culture   string `json:"culture" yaml:"culture" mapstructure:"culture"`
}

// Dates holds the strategy switch-overs and the end of the run as Y.M.D
// strings; "Y" and "Y.M" are accepted too.
type Dates struct {
	MaleOnlyStart string `json:"male_only_start" yaml:"male_only_start" mapstructure:"male_only_start"`
	NormalStart   string `json:"normal_start" yaml:"normal_start" mapstructure:"normal_start"`
	End           string `json:"end" yaml:"end" mapstructure:"end"`
}

// Output selects where a generated run goes besides the terminal.
type Output struct {
	DB             string `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`
	GEDCOM         string `json:"gedcom,omitempty" yaml:"gedcom,omitempty" mapstructure:"gedcom"`
	CK3            string `json:"ck3,omitempty" yaml:"ck3,omitempty" mapstructure:"ck3"`
	Religion       string `json:"religion,omitempty" yaml:"religion,omitempty" mapstructure:"religion"`
	DeathForLiving bool   `json:"death_for_living" yaml:"death_for_living" mapstructure:"death_for_living"`
	NamesDir       string `json:"names_dir,omitempty" yaml:"names_dir,omitempty" mapstructure:"names_dir"`
	TreeDepth      int    `json:"tree_depth" yaml:"tree_depth" mapstructure:"tree_depth"`
}

// Run is the full configuration of one generation run. Mortality and
// Fertility replace the preset's profiles when set. Tunables is applied
// field by field onto the built-in defaults; zero fields keep the default.
type Run struct {
	Seed           int64   `json:"seed" yaml:"seed" mapstructure:"seed"`
	Preset         string  `json:"preset" yaml:"preset" mapstructure:"preset"`
	Founder        Founder `json:"founder" yaml:"founder" mapstructure:"founder"`
	Dates          Dates   `json:"dates" yaml:"dates" mapstructure:"dates"`
	MaxGenerations int     `json:"max_generations" yaml:"max_generations" mapstructure:"max_generations"`
	Output         Output  `json:"output" yaml:"output" mapstructure:"output"`

	Mortality *demography.MortalityProfile `json:"mortality,omitempty" yaml:"mortality,omitempty" mapstructure:"mortality"`
	Fertility *demography.FertilityProfile `json:"fertility,omitempty" yaml:"fertility,omitempty" mapstructure:"fertility"`
	Tunables  *demography.Tunables         `json:"tunables,omitempty" yaml:"tunables,omitempty" mapstructure:"tunables"`
}

// Default returns a complete run from the normal preset spanning the 867
// and 1178 bookmarks.
func Default() Run {
	return Run{
		Seed:   1,
		Preset: demography.PresetNormal,
		Founder: Founder{
			BirthYear: 1000,
			Dynasty:   "Voss",
			Culture:   "english",
		},
		Dates: Dates{
			MaleOnlyStart: calendar.Format(calendar.Start1066),
			NormalStart:   "1120.1.1",
			End:           calendar.Format(calendar.Start1178),
		},
		MaxGenerations: engine.DefaultMaxGenerations,
		Output: Output{
			TreeDepth: 2,
		},
	}
}

// SetDefaults registers Default on v so every key is known to viper, which
// AutomaticEnv needs to resolve nested keys during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("seed", d.Seed)
	v.SetDefault("preset", d.Preset)
	v.SetDefault("founder.birth_year", d.Founder.BirthYear)
	v.SetDefault("founder.dynasty", d.Founder.Dynasty)
	v.SetDefault("founder.culture", d.Founder.Culture)
	v.SetDefault("dates.male_only_start", d.Dates.MaleOnlyStart)
	v.SetDefault("dates.normal_start", d.Dates.NormalStart)
	v.SetDefault("dates.end", d.Dates.End)
	v.SetDefault("max_generations", d.MaxGenerations)
	v.SetDefault("output.db", "")
	v.SetDefault("output.gedcom", "")
	v.SetDefault("output.ck3", "")
	v.SetDefault("output.religion", "")
	v.SetDefault("output.death_for_living", false)
	v.SetDefault("output.names_dir", "")
	v.SetDefault("output.tree_depth", d.Output.TreeDepth)
}

// NewViper returns a viper instance with defaults, environment overrides and
// the config file search path. An empty path searches ./dynastygen.yaml and
// ~/.config/dynastygen/dynastygen.yaml.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads the configured file. A missing file in the search path is
// not an error; an explicit path that cannot be read is.
func ReadFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

// Load decodes v into a Run.
func Load(v *viper.Viper) (Run, error) {
	var r Run
	if err := v.Unmarshal(&r); err != nil {
		return Run{}, fmt.Errorf("decode config: %w", err)
	}
	return r, nil
}

// Clone returns a copy of r that shares no profile or distribution with it.
func (r Run) Clone() Run {
	out := r
	if r.Mortality != nil {
		m := *r.Mortality
		out.Mortality = &m
	}
	if r.Fertility != nil {
		f := r.Fertility.Clone()
		out.Fertility = &f
	}
	if r.Tunables != nil {
		t := r.Tunables.Clone()
		out.Tunables = &t
	}
	return out
}

// Validate checks the run can be turned into an engine configuration.
func (r Run) Validate() error {
	_, err := r.Engine()
	return err
}

// Engine resolves the preset and overrides and parses the dates. Dates must
// satisfy founder birth <= male-only start <= normal start <= end.
func (r Run) Engine() (engine.Config, error) {
	preset, err := demography.LookupPreset(r.Preset)
	if err != nil {
		return engine.Config{}, err
	}
	cfg := engine.Config{
		Dynasty:         r.Founder.Dynasty,
		FounderBirthDay: calendar.YearStart(r.Founder.BirthYear),
		MaxGenerations:  r.MaxGenerations,
		Mortality:       preset.Mortality,
		Fertility:       preset.Fertility,
		Tunables:        demography.DefaultTunables(),
	}
	if r.Mortality != nil {
		cfg.Mortality = *r.Mortality
	}
	if r.Fertility != nil {
		cfg.Fertility = *r.Fertility
	}
	if r.Tunables != nil {
		cfg.Tunables = cfg.Tunables.Override(*r.Tunables)
	}

	for _, d := range []struct {
		name string
		in   string
		out  *int
	}{
		{"male_only_start", r.Dates.MaleOnlyStart, &cfg.MaleOnlyStart},
		{"normal_start", r.Dates.NormalStart, &cfg.NormalStart},
		{"end", r.Dates.End, &cfg.End},
	} {
		day, err := calendar.ParseDate(d.in)
		if err != nil {
			return engine.Config{}, fmt.Errorf("dates.%s: %w", d.name, err)
		}
		*d.out = day
	}

	if cfg.FounderBirthDay > cfg.MaleOnlyStart {
		return engine.Config{}, fmt.Errorf("founder born %d after male-only start %s: %w",
			r.Founder.BirthYear, r.Dates.MaleOnlyStart, demography.ErrInvalidConfig)
	}
	if cfg.NormalStart > cfg.End {
		return engine.Config{}, fmt.Errorf("normal start %s after end %s: %w",
			r.Dates.NormalStart, r.Dates.End, demography.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

// YAML renders the run as it would appear in a config file.
func (r Run) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}
