// Package people provides the person model of a dynasty, the arena that owns
// every person record, and the factories that create people at birth events.
package people

import (
	"github.com/talgya/dynasty-gen/internal/calendar"
)

// PersonID is a stable identifier of a person within one registry.
type PersonID uint64

// Sex represents biological sex for demographic simulation.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// String returns "male" or "female".
func (s Sex) String() string {
	if s == SexFemale {
		return "female"
	}
	return "male"
}

// Person is one individual of the generated family tree. Parents and spouse
// are weak references by ID; Children are owned by this person.
type Person struct {
	ID        PersonID `json:"id"`
	GivenName string   `json:"given_name"`
	Dynasty   string   `json:"dynasty,omitempty"` // Empty for people married into the family
	Sex       Sex      `json:"sex"`

	// Absolute days; DeathDay > BirthDay always.
	BirthDay   int  `json:"birth_day"`
	DeathDay   int  `json:"death_day"`
	AliveAtEnd bool `json:"alive_at_end"`

	// Relationships
	FatherID    *PersonID  `json:"father_id,omitempty"`
	MotherID    *PersonID  `json:"mother_id,omitempty"`
	SpouseID    *PersonID  `json:"spouse_id,omitempty"`
	MarriageDay *int       `json:"marriage_day,omitempty"`
	Children    []PersonID `json:"children,omitempty"`

	// Simulation-only
	SkipGeneration        bool `json:"skip_generation"`
	MotherAgeAtFirstChild int  `json:"mother_age_at_first_child,omitempty"`
}

// Female reports whether the person is female.
func (p *Person) Female() bool {
	return p.Sex == SexFemale
}

// InDynasty reports whether the person carries the dynasty name.
func (p *Person) InDynasty() bool {
	return p.Dynasty != ""
}

// BirthYear returns the calendar year of birth.
func (p *Person) BirthYear() int {
	return calendar.YearOf(p.BirthDay)
}

// DeathYear returns the calendar year of death.
func (p *Person) DeathYear() int {
	return calendar.YearOf(p.DeathDay)
}

// Lifespan returns the age at death in whole calendar years.
func (p *Person) Lifespan() int {
	return p.DeathYear() - p.BirthYear()
}

// AgeInDays returns the person's age on an absolute day.
func (p *Person) AgeInDays(day int) int {
	return day - p.BirthDay
}
