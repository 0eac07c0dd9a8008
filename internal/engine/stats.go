package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/people"
)

// GenerationStats summarizes one generation.
type GenerationStats struct {
	Generation    int     `json:"generation"`
	Count         int     `json:"count"`
	Males         int     `json:"males"`
	Females       int     `json:"females"`
	Members       int     `json:"members"`
	Skipped       int     `json:"skipped"`
	AvgLifespan   float64 `json:"avg_lifespan"`
	AvgBirthYear  float64 `json:"avg_birth_year"`
	AvgDeathYear  float64 `json:"avg_death_year"`
	TotalChildren int     `json:"total_children"`
	AvgChildren   float64 `json:"avg_children"`
	MaxBirthGap   int     `json:"max_birth_gap"`
	YoungMales    int     `json:"young_males"`
	LivingAtEnd   int     `json:"living_at_end"`
}

// Stats summarizes a whole dynasty.
type Stats struct {
	Founder          string            `json:"founder"`
	TotalGenerations int               `json:"total_generations"`
	TotalPeople      int               `json:"total_people"`
	TotalMembers     int               `json:"total_members"`
	Deaths           int               `json:"deaths"`
	LivingAtEnd      int               `json:"living_at_end"`
	YoungMales       int               `json:"young_males"`
	MaxBirthGap      int               `json:"max_birth_gap"`
	Generations      []GenerationStats `json:"generations"`
}

// Summarize computes dynasty statistics. Young males are those under the
// playable age at the end of the run.
func Summarize(d *Dynasty) Stats {
	endYear := calendar.YearOf(d.Config.End)
	s := Stats{
		TotalGenerations: len(d.Generations),
		TotalPeople:      d.Registry.Len(),
	}
	if f := d.Founder(); f != nil {
		s.Founder = displayName(f)
	}
	for _, p := range d.Registry.All() {
		if p.AliveAtEnd {
			s.LivingAtEnd++
		} else {
			s.Deaths++
		}
	}

	for g := range d.Generations {
		members := d.Generation(g)
		gs := GenerationStats{Generation: g, Count: len(members)}
		if len(members) == 0 {
			s.Generations = append(s.Generations, gs)
			continue
		}

		var lifespans, births, deaths int
		years := make([]int, 0, len(members))
		for _, p := range members {
			if p.Female() {
				gs.Females++
			} else {
				gs.Males++
				if endYear-p.BirthYear() < d.Config.Tunables.PlayableAge {
					gs.YoungMales++
				}
			}
			if p.InDynasty() {
				gs.Members++
			}
			if p.SkipGeneration {
				gs.Skipped++
			}
			if p.AliveAtEnd {
				gs.LivingAtEnd++
			}
			gs.TotalChildren += len(p.Children)
			lifespans += p.Lifespan()
			births += p.BirthYear()
			deaths += p.DeathYear()
			years = append(years, p.BirthYear())
		}

		n := float64(len(members))
		gs.AvgLifespan = float64(lifespans) / n
		gs.AvgBirthYear = float64(births) / n
		gs.AvgDeathYear = float64(deaths) / n
		gs.AvgChildren = float64(gs.TotalChildren) / n

		sort.Ints(years)
		for i := 1; i < len(years); i++ {
			gs.MaxBirthGap = max(gs.MaxBirthGap, years[i]-years[i-1])
		}

		s.TotalMembers += gs.Members
		s.YoungMales += gs.YoungMales
		s.MaxBirthGap = max(s.MaxBirthGap, gs.MaxBirthGap)
		s.Generations = append(s.Generations, gs)
	}
	return s
}

// treeChildLimit caps how many children are printed under one person.
const treeChildLimit = 3

// WriteTree prints the family tree from the founder down to depth levels.
func WriteTree(w io.Writer, d *Dynasty, depth int) error {
	f := d.Founder()
	if f == nil {
		return nil
	}
	return writePerson(w, d.Registry, f, 0, depth)
}

func writePerson(w io.Writer, reg *people.Registry, p *people.Person, indent, depth int) error {
	if indent > depth {
		return nil
	}
	prefix := strings.Repeat("  ", indent)
	if indent > 0 {
		prefix += "├─ "
	}
	status := "†"
	if p.AliveAtEnd {
		status = "✓"
	}
	sex := "♂"
	if p.Female() {
		sex = "♀"
	}
	if _, err := fmt.Fprintf(w, "%s%s %s (%d-%d) %s\n", prefix, displayName(p), sex, p.BirthYear(), p.DeathYear(), status); err != nil {
		return err
	}

	kids := reg.ChildrenOf(p)
	for _, c := range kids[:min(len(kids), treeChildLimit)] {
		if err := writePerson(w, reg, c, indent+1, depth); err != nil {
			return err
		}
	}
	if extra := len(kids) - treeChildLimit; extra > 0 && indent < depth {
		if _, err := fmt.Fprintf(w, "%s... and %d more children\n", strings.Repeat("  ", indent+1), extra); err != nil {
			return err
		}
	}
	return nil
}
