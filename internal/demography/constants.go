package demography

import "fmt"

// Default fertile window of a mother, in years of age.
const (
	DefaultFertileStart = 14
	DefaultFertileStop  = 39
)

// DefaultMinSiblingGap is the minimum number of years between siblings.
const DefaultMinSiblingGap = 2

// DefaultChanceOfSon is the probability a birth is a son.
const DefaultChanceOfSon = 0.51

// DefaultPlayableAge is the age at the simulation end below which a son is
// left without a generated family of his own.
const DefaultPlayableAge = 30

// Per-age fertility weights over the default window, tuned for a medieval
// population with early first births.
var defaultAgeWeights = Distribution{
	14: 0.010, 15: 0.025, 16: 0.055, 17: 0.090,
	18: 0.125, 19: 0.145, 20: 0.140, 21: 0.125,
	22: 0.100, 23: 0.075, 24: 0.050, 25: 0.030,
	26: 0.020, 27: 0.015, 28: 0.010, 29: 0.007,
	30: 0.005, 31: 0.004, 32: 0.003, 33: 0.002,
	34: 0.0015, 35: 0.001, 36: 0.0007, 37: 0.0004,
	38: 0.0002, 39: 0.0001,
}

// Years the mother is older (negative) or younger than the father.
var defaultFatherAgeOffset = Distribution{
	-1: 0.05, 0: 0.1, 1: 0.2, 2: 0.3,
	3: 0.2, 4: 0.1, 5: 0.05,
}

// Number of sons a mainline father materializes.
var defaultMainlineHeirs = Distribution{
	1: 0.8,
	2: 0.1975,
	3: 0.025,
}

// Tunables are the fixed parameters shared by every strategy of a run.
type Tunables struct {
	FertileStart         int              `json:"fertile_start" yaml:"fertile_start" mapstructure:"fertile_start"`
	FertileStop          int              `json:"fertile_stop" yaml:"fertile_stop" mapstructure:"fertile_stop"`
	AgeWeights           Distribution     `json:"age_weights" yaml:"age_weights" mapstructure:"age_weights"`
	MinSiblingGap        int              `json:"min_sibling_gap" yaml:"min_sibling_gap" mapstructure:"min_sibling_gap"`
	FatherAgeOffset      Distribution     `json:"father_age_offset" yaml:"father_age_offset" mapstructure:"father_age_offset"`
	MotherFirstChildAge  Distribution     `json:"mother_first_child_age" yaml:"mother_first_child_age" mapstructure:"mother_first_child_age"`
	ChanceOfSon          float64          `json:"chance_of_son" yaml:"chance_of_son" mapstructure:"chance_of_son"`
	MainlineHeirs        Distribution     `json:"mainline_heirs" yaml:"mainline_heirs" mapstructure:"mainline_heirs"`
	PlayableAge          int              `json:"playable_age" yaml:"playable_age" mapstructure:"playable_age"`
	MainlineMortality    MortalityProfile `json:"mainline_mortality" yaml:"mainline_mortality" mapstructure:"mainline_mortality"`
	NonMainlineMortality MortalityProfile `json:"non_mainline_mortality" yaml:"non_mainline_mortality" mapstructure:"non_mainline_mortality"`
}

// DefaultTunables returns a fresh copy of the built-in tunables.
func DefaultTunables() Tunables {
	return Tunables{
		FertileStart:        DefaultFertileStart,
		FertileStop:         DefaultFertileStop,
		AgeWeights:          clone(defaultAgeWeights),
		MinSiblingGap:       DefaultMinSiblingGap,
		FatherAgeOffset:     clone(defaultFatherAgeOffset),
		MotherFirstChildAge: clone(defaultAgeWeights),
		ChanceOfSon:         DefaultChanceOfSon,
		MainlineHeirs:       clone(defaultMainlineHeirs),
		PlayableAge:         DefaultPlayableAge,
		MainlineMortality: MortalityProfile{
			EarlyRange:       AgeRange{Low: 30, High: 49},
			NormalRange:      AgeRange{Low: 55, High: 75},
			EarlyProbability: 0.1,
		},
		NonMainlineMortality: MortalityProfile{
			EarlyRange:       AgeRange{Low: 1, High: 29},
			NormalRange:      AgeRange{Low: 30, High: 70},
			EarlyProbability: 0.35,
		},
	}
}

// Clone returns a copy that shares no map with t.
func (t Tunables) Clone() Tunables {
	out := t
	out.AgeWeights = t.AgeWeights.Clone()
	out.FatherAgeOffset = t.FatherAgeOffset.Clone()
	out.MotherFirstChildAge = t.MotherFirstChildAge.Clone()
	out.MainlineHeirs = t.MainlineHeirs.Clone()
	return out
}

// Override returns t with every non-zero field of o applied. Distributions
// and mortality profiles are replaced whole.
func (t Tunables) Override(o Tunables) Tunables {
	out := t.Clone()
	if o.FertileStart != 0 {
		out.FertileStart = o.FertileStart
	}
	if o.FertileStop != 0 {
		out.FertileStop = o.FertileStop
	}
	if len(o.AgeWeights) > 0 {
		out.AgeWeights = o.AgeWeights.Clone()
	}
	if o.MinSiblingGap != 0 {
		out.MinSiblingGap = o.MinSiblingGap
	}
	if len(o.FatherAgeOffset) > 0 {
		out.FatherAgeOffset = o.FatherAgeOffset.Clone()
	}
	if len(o.MotherFirstChildAge) > 0 {
		out.MotherFirstChildAge = o.MotherFirstChildAge.Clone()
	}
	if o.ChanceOfSon != 0 {
		out.ChanceOfSon = o.ChanceOfSon
	}
	if len(o.MainlineHeirs) > 0 {
		out.MainlineHeirs = o.MainlineHeirs.Clone()
	}
	if o.PlayableAge != 0 {
		out.PlayableAge = o.PlayableAge
	}
	if o.MainlineMortality != (MortalityProfile{}) {
		out.MainlineMortality = o.MainlineMortality
	}
	if o.NonMainlineMortality != (MortalityProfile{}) {
		out.NonMainlineMortality = o.NonMainlineMortality
	}
	return out
}

// FullWindowYears is the width of the canonical fertile window, inclusive.
func (t Tunables) FullWindowYears() int {
	return t.FertileStop - t.FertileStart + 1
}

// Validate checks every tunable. A window with no positive weight is a
// configuration error because no child could ever be placed in it.
func (t Tunables) Validate() error {
	if t.FertileStart < 0 || t.FertileStop < t.FertileStart {
		return fmt.Errorf("fertile window [%d, %d]: %w", t.FertileStart, t.FertileStop, ErrInvalidConfig)
	}
	if err := t.AgeWeights.Validate(); err != nil {
		return fmt.Errorf("age weights: %w", err)
	}
	inWindow := 0.0
	for age, w := range t.AgeWeights {
		if age >= t.FertileStart && age <= t.FertileStop {
			inWindow += w
		}
	}
	if inWindow <= 0 {
		return fmt.Errorf("no positive age weight in [%d, %d]: %w", t.FertileStart, t.FertileStop, ErrInvalidConfig)
	}
	if t.MinSiblingGap < 1 {
		return fmt.Errorf("min sibling gap %d: %w", t.MinSiblingGap, ErrInvalidConfig)
	}
	if err := t.FatherAgeOffset.Validate(); err != nil {
		return fmt.Errorf("father age offset: %w", err)
	}
	if err := t.MotherFirstChildAge.Validate(); err != nil {
		return fmt.Errorf("mother first child age: %w", err)
	}
	if t.ChanceOfSon < 0 || t.ChanceOfSon > 1 {
		return fmt.Errorf("chance of son %g: %w", t.ChanceOfSon, ErrInvalidConfig)
	}
	if err := t.MainlineHeirs.Validate(); err != nil {
		return fmt.Errorf("mainline heirs: %w", err)
	}
	for k := range t.MainlineHeirs {
		if k < 1 {
			return fmt.Errorf("mainline heir count %d: %w", k, ErrInvalidConfig)
		}
	}
	if t.PlayableAge < 0 {
		return fmt.Errorf("playable age %d: %w", t.PlayableAge, ErrInvalidConfig)
	}
	if err := t.MainlineMortality.Validate(); err != nil {
		return fmt.Errorf("mainline mortality: %w", err)
	}
	if err := t.NonMainlineMortality.Validate(); err != nil {
		return fmt.Errorf("non-mainline mortality: %w", err)
	}
	return nil
}

func clone(d Distribution) Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
