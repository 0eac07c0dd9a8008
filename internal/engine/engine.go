package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/entropy"
	"github.com/talgya/dynasty-gen/internal/people"
)

// Engine grows one dynasty. It is single-use and not safe for concurrent use.
type Engine struct {
	cfg     Config
	rng     *entropy.Stream
	factory *people.Factory
	events  []Event

	// OnGeneration, if set, is called after each generation is complete.
	OnGeneration func(index int, members []*people.Person)
}

// NewEngine validates cfg and prepares a run drawing from rng.
func NewEngine(cfg Config, rng *entropy.Stream) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxGenerations == 0 {
		cfg.MaxGenerations = DefaultMaxGenerations
	}
	f := people.NewFactory(people.NewRegistry(), rng, cfg.Tunables, cfg.End)
	if cfg.Names != nil {
		f.SetNames(cfg.Names)
	}
	return &Engine{cfg: cfg, rng: rng, factory: f}, nil
}

// Run grows the dynasty from its founder until a generation has no
// children. Any strategy failure aborts the whole run.
func (e *Engine) Run() (*Dynasty, error) {
	founder := e.factory.CreateFounder(e.cfg.FounderBirthDay, e.cfg.Mortality, e.cfg.Dynasty)
	e.recordPerson(founder)

	d := &Dynasty{
		Config:      e.cfg,
		Registry:    e.factory.Registry(),
		Generations: [][]people.PersonID{{founder.ID}},
	}
	slog.Info("founder created",
		"dynasty", e.cfg.Dynasty,
		"born", calendar.Format(founder.BirthDay),
		"died", calendar.Format(founder.DeathDay),
	)

	current := []*people.Person{founder}
	for {
		if e.OnGeneration != nil {
			e.OnGeneration(len(d.Generations)-1, current)
		}

		var next []*people.Person
		for _, p := range current {
			if p.SkipGeneration {
				continue
			}
			kids, err := e.children(p)
			if err != nil {
				return nil, fmt.Errorf("generation %d: %w", len(d.Generations)-1, err)
			}
			next = append(next, kids...)
		}
		if len(next) == 0 {
			break
		}
		if len(d.Generations) >= e.cfg.MaxGenerations {
			return nil, fmt.Errorf("%d generations: %w", e.cfg.MaxGenerations, ErrGenerationCap)
		}

		ids := make([]people.PersonID, len(next))
		for i, p := range next {
			ids[i] = p.ID
		}
		d.Generations = append(d.Generations, ids)
		slog.Info("generation complete", "generation", len(d.Generations)-1, "people", len(next))
		current = next
	}

	sort.SliceStable(e.events, func(i, j int) bool { return e.events[i].Day < e.events[j].Day })
	d.Events = e.events
	slog.Info("dynasty complete",
		"dynasty", e.cfg.Dynasty,
		"generations", len(d.Generations),
		"people", d.Registry.Len(),
	)
	return d, nil
}

// Run validates cfg and grows a dynasty with a fresh engine.
func Run(cfg Config, rng *entropy.Stream) (*Dynasty, error) {
	e, err := NewEngine(cfg, rng)
	if err != nil {
		return nil, err
	}
	return e.Run()
}
