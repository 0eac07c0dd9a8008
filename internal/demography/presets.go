package demography

import (
	"fmt"
	"sort"
)

// Preset bundles a mortality and a fertility profile under a name.
type Preset struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Mortality   MortalityProfile `json:"mortality" yaml:"mortality"`
	Fertility   FertilityProfile `json:"fertility" yaml:"fertility"`
}

// Validate checks both profiles.
func (p Preset) Validate() error {
	if err := p.Mortality.Validate(); err != nil {
		return fmt.Errorf("preset %s mortality: %w", p.Name, err)
	}
	if err := p.Fertility.Validate(); err != nil {
		return fmt.Errorf("preset %s fertility: %w", p.Name, err)
	}
	return nil
}

// Preset names.
const (
	PresetNormal    = "normal"
	PresetGenerous  = "generous"
	PresetRealistic = "realistic"
)

func presetTable() map[string]Preset {
	return map[string]Preset{
		PresetNormal: {
			Name:        PresetNormal,
			Description: "balanced mortality and fertility",
			Mortality: MortalityProfile{
				EarlyRange:       AgeRange{Low: 16, High: 49},
				NormalRange:      AgeRange{Low: 50, High: 70},
				EarlyProbability: 0.25,
			},
			Fertility: FertilityProfile{Children: Distribution{
				0: 0.05, 1: 0.10, 2: 0.20, 3: 0.25, 4: 0.20, 5: 0.12, 6: 0.08,
			}},
		},
		PresetGenerous: {
			Name:        PresetGenerous,
			Description: "high fertility, low mortality",
			Mortality: MortalityProfile{
				EarlyRange:       AgeRange{Low: 20, High: 49},
				NormalRange:      AgeRange{Low: 55, High: 80},
				EarlyProbability: 0.10,
			},
			Fertility: FertilityProfile{Children: Distribution{
				2: 0.10, 3: 0.15, 4: 0.25, 5: 0.25, 6: 0.15, 7: 0.07, 8: 0.03,
			}},
		},
		PresetRealistic: {
			Name:        PresetRealistic,
			Description: "high early mortality, moderate fertility",
			Mortality: MortalityProfile{
				EarlyRange:       AgeRange{Low: 1, High: 49},
				NormalRange:      AgeRange{Low: 50, High: 70},
				EarlyProbability: 0.45,
			},
			Fertility: FertilityProfile{Children: Distribution{
				0: 0.10, 1: 0.15, 2: 0.20, 3: 0.20, 4: 0.15, 5: 0.10, 6: 0.06, 7: 0.04,
			}},
		},
	}
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presetTable()[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q: %w", name, ErrInvalidConfig)
	}
	return p, nil
}

// Presets returns every built-in preset ordered by name.
func Presets() []Preset {
	table := presetTable()
	out := make([]Preset, 0, len(table))
	for _, p := range table {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
