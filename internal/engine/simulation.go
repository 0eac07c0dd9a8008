// Package engine grows a dynasty from its founder, one generation at a time.
package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/people"
)

// DefaultMaxGenerations bounds a run when the config leaves it unset.
const DefaultMaxGenerations = 1000

// ErrGenerationCap aborts a run that would exceed its generation limit.
var ErrGenerationCap = errors.New("generation cap reached")

// Config holds everything a run needs. Days are absolute days.
type Config struct {
	Dynasty         string `json:"dynasty"`
	FounderBirthDay int    `json:"founder_birth_day"`
	MaleOnlyStart   int    `json:"male_only_start"`
	NormalStart     int    `json:"normal_start"`
	End             int    `json:"end"`
	MaxGenerations  int    `json:"max_generations"`

	Mortality demography.MortalityProfile `json:"mortality"`
	Fertility demography.FertilityProfile `json:"fertility"`
	Tunables  demography.Tunables         `json:"tunables"`

	// Names defaults to the built-in pools.
	Names people.NameProvider `json:"-"`
}

// Validate checks profiles, tunables and date ordering.
func (c Config) Validate() error {
	if c.Dynasty == "" {
		return fmt.Errorf("dynasty name is empty: %w", demography.ErrInvalidConfig)
	}
	if c.FounderBirthDay > c.End {
		return fmt.Errorf("founder born %s after end %s: %w",
			calendar.Format(c.FounderBirthDay), calendar.Format(c.End), demography.ErrInvalidConfig)
	}
	if c.MaleOnlyStart > c.NormalStart {
		return fmt.Errorf("male-only start %s after normal start %s: %w",
			calendar.Format(c.MaleOnlyStart), calendar.Format(c.NormalStart), demography.ErrInvalidConfig)
	}
	if c.MaxGenerations < 0 {
		return fmt.Errorf("max generations %d: %w", c.MaxGenerations, demography.ErrInvalidConfig)
	}
	if err := c.Mortality.Validate(); err != nil {
		return fmt.Errorf("mortality: %w", err)
	}
	if err := c.Fertility.Validate(); err != nil {
		return fmt.Errorf("fertility: %w", err)
	}
	if err := c.Tunables.Validate(); err != nil {
		return fmt.Errorf("tunables: %w", err)
	}
	return nil
}

// Dynasty is the result of a run: the arena of everyone created, the
// generation index of dynasty members, and the event log.
type Dynasty struct {
	Config      Config
	Registry    *people.Registry
	Generations [][]people.PersonID
	Events      []Event
}

// Name returns the dynasty name.
func (d *Dynasty) Name() string {
	return d.Config.Dynasty
}

// Founder returns generation zero's only member.
func (d *Dynasty) Founder() *people.Person {
	if len(d.Generations) == 0 || len(d.Generations[0]) == 0 {
		return nil
	}
	return d.Registry.Get(d.Generations[0][0])
}

// Generation resolves the members of generation i.
func (d *Dynasty) Generation(i int) []*people.Person {
	if i < 0 || i >= len(d.Generations) {
		return nil
	}
	out := make([]*people.Person, 0, len(d.Generations[i]))
	for _, id := range d.Generations[i] {
		out = append(out, d.Registry.Get(id))
	}
	return out
}

// GenerationIndex maps each generation member to its generation. Spouses
// married into the dynasty are absent.
func (d *Dynasty) GenerationIndex() map[people.PersonID]int {
	idx := make(map[people.PersonID]int, d.Registry.Len())
	for g, ids := range d.Generations {
		for _, id := range ids {
			idx[id] = g
		}
	}
	return idx
}
