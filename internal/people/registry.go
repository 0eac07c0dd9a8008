package people

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPerson is returned for an ID the registry never issued.
	ErrUnknownPerson = errors.New("unknown person")

	// ErrAlreadyMarried is returned when a union or marriage day would be
	// written a second time.
	ErrAlreadyMarried = errors.New("already married")
)

// Registry is the arena owning every person of a run. IDs are issued
// sequentially from 1 and index directly into the arena.
type Registry struct {
	people []*Person
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add assigns the next ID to p and stores it.
func (r *Registry) Add(p *Person) PersonID {
	p.ID = PersonID(len(r.people) + 1)
	r.people = append(r.people, p)
	return p.ID
}

// Restore stores a person that already carries its ID. IDs must be restored
// in ascending order without holes.
func (r *Registry) Restore(p *Person) error {
	if want := PersonID(len(r.people) + 1); p.ID != want {
		return fmt.Errorf("restore person %d: expected id %d", p.ID, want)
	}
	r.people = append(r.people, p)
	return nil
}

// Get returns the person with id, or nil.
func (r *Registry) Get(id PersonID) *Person {
	if id == 0 || int(id) > len(r.people) {
		return nil
	}
	return r.people[id-1]
}

// Lookup resolves an optional reference.
func (r *Registry) Lookup(id *PersonID) *Person {
	if id == nil {
		return nil
	}
	return r.Get(*id)
}

// Len returns the number of people in the registry.
func (r *Registry) Len() int {
	return len(r.people)
}

// All returns every person in ID order.
func (r *Registry) All() []*Person {
	return r.people
}

// Marry links two people as spouses, on both sides at once.
func (r *Registry) Marry(a, b PersonID) error {
	pa, pb := r.Get(a), r.Get(b)
	if pa == nil || pb == nil {
		return fmt.Errorf("marry %d and %d: %w", a, b, ErrUnknownPerson)
	}
	if pa.SpouseID != nil || pb.SpouseID != nil {
		return fmt.Errorf("marry %d and %d: %w", a, b, ErrAlreadyMarried)
	}
	pa.SpouseID = &b
	pb.SpouseID = &a
	return nil
}

// SetMarriageDay records the wedding day on a person and their spouse. It is
// written at most once per person.
func (r *Registry) SetMarriageDay(id PersonID, day int) error {
	p := r.Get(id)
	if p == nil {
		return fmt.Errorf("marriage day for %d: %w", id, ErrUnknownPerson)
	}
	targets := []*Person{p}
	if s := r.Lookup(p.SpouseID); s != nil {
		targets = append(targets, s)
	}
	for _, t := range targets {
		if t.MarriageDay != nil {
			return fmt.Errorf("marriage day for %d: %w", t.ID, ErrAlreadyMarried)
		}
	}
	for _, t := range targets {
		d := day
		t.MarriageDay = &d
	}
	return nil
}

// AddChild appends child to parent's owned children.
func (r *Registry) AddChild(parent, child PersonID) error {
	p := r.Get(parent)
	if p == nil || r.Get(child) == nil {
		return fmt.Errorf("add child %d to %d: %w", child, parent, ErrUnknownPerson)
	}
	p.Children = append(p.Children, child)
	return nil
}

// ChildrenOf resolves a person's children.
func (r *Registry) ChildrenOf(p *Person) []*Person {
	out := make([]*Person, 0, len(p.Children))
	for _, id := range p.Children {
		if c := r.Get(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}
