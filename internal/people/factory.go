package people

import (
	"fmt"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/entropy"
)

// nameStreamOffset separates the name stream from the run stream so given
// names never shift the draws that shape the tree.
const nameStreamOffset = 300

// Birth describes a person about to be created.
type Birth struct {
	Day       int
	Mortality demography.MortalityProfile
	Father    *Person
	Mother    *Person
	Dynasty   string
}

// Factory creates people at birth events and registers them in the arena.
type Factory struct {
	reg      *Registry
	rng      *entropy.Stream
	tunables demography.Tunables
	end      int

	names   NameProvider
	nameRNG *entropy.Stream
}

// NewFactory creates a factory drawing lifespans from rng. end is the
// simulation horizon as an absolute day.
func NewFactory(reg *Registry, rng *entropy.Stream, tunables demography.Tunables, end int) *Factory {
	return &Factory{
		reg:      reg,
		rng:      rng,
		tunables: tunables,
		end:      end,
		names:    DefaultNames(),
		nameRNG:  rng.Derive(nameStreamOffset),
	}
}

// SetNames replaces the name provider.
func (f *Factory) SetNames(names NameProvider) {
	f.names = names
}

// Registry returns the arena the factory writes to.
func (f *Factory) Registry() *Registry {
	return f.reg
}

// Tunables returns the run tunables.
func (f *Factory) Tunables() demography.Tunables {
	return f.tunables
}

// End returns the simulation horizon.
func (f *Factory) End() int {
	return f.end
}

// Stream returns the run stream.
func (f *Factory) Stream() *entropy.Stream {
	return f.rng
}

// create draws the lifespan, places the death day, and links the parents.
// Draw order: age at death, then the day within the death year.
// It panics when the father was not issued by this factory's registry.
func (f *Factory) create(b Birth, sex Sex) *Person {
	age := demography.DrawAgeAtDeath(b.Mortality, f.rng)
	deathYear := calendar.YearOf(b.Day) + age
	deathDay := calendar.RandomDayInYear(deathYear, f.rng)

	p := &Person{
		GivenName:  f.names.Name(sex, f.nameRNG),
		Dynasty:    b.Dynasty,
		Sex:        sex,
		BirthDay:   b.Day,
		DeathDay:   deathDay,
		AliveAtEnd: deathDay > f.end,
	}
	f.reg.Add(p)

	if b.Father != nil {
		fid := b.Father.ID
		p.FatherID = &fid
		if err := f.reg.AddChild(fid, p.ID); err != nil {
			panic(fmt.Sprintf("people: father from another registry: %v", err))
		}
	}
	if b.Mother != nil {
		mid := b.Mother.ID
		p.MotherID = &mid
	}
	return p
}

// CreateMale creates a son. Sons younger than the playable age at the
// simulation end are flagged to skip further generations.
func (f *Factory) CreateMale(b Birth) *Person {
	p := f.create(b, SexMale)
	if p.AgeInDays(f.end) < calendar.YearsToDays(f.tunables.PlayableAge) {
		p.SkipGeneration = true
	}
	return p
}

// CreateFemale creates a daughter. Daughters never found tracked generations.
func (f *Factory) CreateFemale(b Birth) *Person {
	p := f.create(b, SexFemale)
	p.SkipGeneration = true
	return p
}

// CreateFounder creates the male head of generation zero.
func (f *Factory) CreateFounder(birthDay int, mortality demography.MortalityProfile, dynasty string) *Person {
	p := f.create(Birth{Day: birthDay, Mortality: mortality, Dynasty: dynasty}, SexMale)
	p.SkipGeneration = false
	return p
}

// GenerateSpouse creates a wife for father, born father-age-offset years
// after him, and links the couple. Her lifespan is drawn independently of
// his; reconciling their joint fertile window is left to the caller.
func (f *Factory) GenerateSpouse(father *Person, mortality demography.MortalityProfile) (*Person, error) {
	firstChildAge := f.tunables.MotherFirstChildAge.Sample(f.rng)
	offset := f.tunables.FatherAgeOffset.Sample(f.rng)
	birthYear := father.BirthYear() + offset
	birthDay := calendar.RandomDayInYear(birthYear, f.rng)

	wife := f.CreateFemale(Birth{Day: birthDay, Mortality: mortality})
	wife.MotherAgeAtFirstChild = firstChildAge

	if err := f.reg.Marry(father.ID, wife.ID); err != nil {
		return nil, fmt.Errorf("spouse for %d: %w", father.ID, err)
	}
	return wife, nil
}
