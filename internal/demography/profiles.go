// Package demography holds the statistical profiles a dynasty run draws from:
// mortality profiles, fertility profiles, the fixed tunables of the fertile
// window, and the built-in presets.
package demography

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/dynasty-gen/internal/entropy"
)

// ErrInvalidConfig marks a malformed range, distribution or tunable.
var ErrInvalidConfig = errors.New("invalid configuration")

// AgeRange is an inclusive [Low, High] range of ages in years.
type AgeRange struct {
	Low  int `json:"low" yaml:"low" mapstructure:"low"`
	High int `json:"high" yaml:"high" mapstructure:"high"`
}

// Validate checks the range is ordered and starts at one year or later.
func (r AgeRange) Validate() error {
	if r.Low < 1 || r.High < r.Low {
		return fmt.Errorf("age range [%d, %d]: %w", r.Low, r.High, ErrInvalidConfig)
	}
	return nil
}

// Distribution is a discrete distribution over integers, value -> weight.
// Weights need not sum to one.
type Distribution map[int]float64

// Keys returns the distribution's values in ascending order.
func (d Distribution) Keys() []int {
	keys := make([]int, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Clone returns an independent copy, or nil for a nil distribution.
func (d Distribution) Clone() Distribution {
	if d == nil {
		return nil
	}
	return clone(d)
}

// UnmarshalJSON replaces the distribution. Decoding into a populated map
// would otherwise merge the two sets of weights.
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var m map[int]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = m
	return nil
}

// Validate rejects empty distributions, negative weights and zero mass.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("empty distribution: %w", ErrInvalidConfig)
	}
	total := 0.0
	for k, w := range d {
		if w < 0 {
			return fmt.Errorf("negative weight %g for %d: %w", w, k, ErrInvalidConfig)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("distribution has no mass: %w", ErrInvalidConfig)
	}
	return nil
}

// Sample draws one value. Keys are walked in ascending order so the result
// depends only on the stream position.
func (d Distribution) Sample(rng *entropy.Stream) int {
	keys := d.Keys()
	weights := make([]float64, len(keys))
	for i, k := range keys {
		weights[i] = d[k]
	}
	idx := rng.Choose(weights)
	if idx < 0 {
		return 0
	}
	return keys[idx]
}

// Mean returns the weighted mean of the distribution.
func (d Distribution) Mean() float64 {
	var sum, total float64
	for k, w := range d {
		sum += float64(k) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// MortalityProfile describes how long a person lives: with EarlyProbability
// the age at death falls in EarlyRange, otherwise in NormalRange.
type MortalityProfile struct {
	EarlyRange       AgeRange `json:"early_range" yaml:"early_range" mapstructure:"early_range"`
	NormalRange      AgeRange `json:"normal_range" yaml:"normal_range" mapstructure:"normal_range"`
	EarlyProbability float64  `json:"early_probability" yaml:"early_probability" mapstructure:"early_probability"`
}

// Validate checks both ranges and the probability.
func (m MortalityProfile) Validate() error {
	if err := m.EarlyRange.Validate(); err != nil {
		return fmt.Errorf("early range: %w", err)
	}
	if err := m.NormalRange.Validate(); err != nil {
		return fmt.Errorf("normal range: %w", err)
	}
	if m.EarlyProbability < 0 || m.EarlyProbability > 1 {
		return fmt.Errorf("early probability %g: %w", m.EarlyProbability, ErrInvalidConfig)
	}
	return nil
}

// FertilityProfile holds the distribution of attempted child counts per couple.
type FertilityProfile struct {
	Children Distribution `json:"children" yaml:"children" mapstructure:"children"`
}

// Clone returns a copy that shares no map with f.
func (f FertilityProfile) Clone() FertilityProfile {
	return FertilityProfile{Children: f.Children.Clone()}
}

// Validate checks the child-count distribution is usable and non-negative.
func (f FertilityProfile) Validate() error {
	if err := f.Children.Validate(); err != nil {
		return fmt.Errorf("children: %w", err)
	}
	for k := range f.Children {
		if k < 0 {
			return fmt.Errorf("negative child count %d: %w", k, ErrInvalidConfig)
		}
	}
	return nil
}
