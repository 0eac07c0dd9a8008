package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/fertility"
	"github.com/talgya/dynasty-gen/internal/people"
)

// children dispatches to the strategy selected for father's birth day.
func (e *Engine) children(father *people.Person) ([]*people.Person, error) {
	s := SelectStrategy(father.BirthDay, e.cfg.MaleOnlyStart, e.cfg.NormalStart)
	slog.Debug("generating children", "father", father.ID, "born", calendar.Format(father.BirthDay), "strategy", s)

	switch s {
	case StrategyMainline:
		return e.mainline(father)
	case StrategyMaleOnly:
		return e.family(father, false)
	default:
		return e.family(father, true)
	}
}

// birthLimit is the last day a child of the couple can be born on.
func (e *Engine) birthLimit(father, mother *people.Person) int {
	return min(father.DeathDay, mother.DeathDay, e.cfg.End)
}

// window is the couple's usable fertile window in the mother's years.
func (e *Engine) window(father, mother *people.Person) fertility.Window {
	return fertility.FertileWindow(mother.BirthYear(), mother.DeathYear(), father.DeathYear(),
		calendar.YearOf(e.cfg.End), e.cfg.Tunables)
}

// marry creates a wife for father and records her birth.
func (e *Engine) marry(father *people.Person, wifeMortality demography.MortalityProfile) (*people.Person, error) {
	wife, err := e.factory.GenerateSpouse(father, wifeMortality)
	if err != nil {
		return nil, err
	}
	e.recordPerson(wife)
	return wife, nil
}

// setMarriage dates the union to a random day of the year before the first
// child's birth.
func (e *Engine) setMarriage(father, mother *people.Person, firstBirth int) error {
	day := calendar.RandomDayInYear(calendar.YearOf(firstBirth)-1, e.rng)
	if err := e.factory.Registry().SetMarriageDay(father.ID, day); err != nil {
		return err
	}
	e.recordMarriage(father, mother, day)
	return nil
}

// family marries father, draws the couple's birthdays and assigns each birth
// a sex. Daughters are materialized only when keepDaughters is set; they are
// still drawn so the sons' placement reflects every pregnancy.
func (e *Engine) family(father *people.Person, keepDaughters bool) ([]*people.Person, error) {
	t := e.cfg.Tunables
	mother, err := e.marry(father, e.cfg.Mortality)
	if err != nil {
		return nil, err
	}

	baseline := e.cfg.Fertility.Children.Sample(e.rng)
	days, err := fertility.DrawChildren(baseline, e.window(father, mother), mother.BirthYear(), t, e.rng)
	if err != nil {
		return nil, fmt.Errorf("children of %d: %w", father.ID, err)
	}

	limit := e.birthLimit(father, mother)
	var kids []*people.Person
	for _, day := range days {
		son := e.rng.Bernoulli(t.ChanceOfSon)
		if day > limit || (!son && !keepDaughters) {
			continue
		}
		b := people.Birth{
			Day:       day,
			Mortality: e.cfg.Mortality,
			Father:    father,
			Mother:    mother,
			Dynasty:   father.Dynasty,
		}
		var child *people.Person
		if son {
			child = e.factory.CreateMale(b)
		} else {
			child = e.factory.CreateFemale(b)
		}
		e.recordPerson(child)
		kids = append(kids, child)
	}

	if len(kids) > 0 {
		if err := e.setMarriage(father, mother, kids[0].BirthDay); err != nil {
			return nil, err
		}
	}
	return kids, nil
}

// mainline produces the father's sons along the heir line. The attempted
// count is at least the number of heirs and is only capped by the gap rule.
// Every son but the last dies young more often and ends his line; the last
// is the heir.
func (e *Engine) mainline(father *people.Person) ([]*people.Person, error) {
	t := e.cfg.Tunables
	mother, err := e.marry(father, t.MainlineMortality)
	if err != nil {
		return nil, err
	}

	attempted := e.cfg.Fertility.Children.Sample(e.rng)
	heirs := t.MainlineHeirs.Sample(e.rng)
	w := e.window(father, mother)
	k := min(max(attempted, heirs), fertility.MaxChildren(w, t.MinSiblingGap))
	if k <= 0 {
		return nil, nil
	}

	ages, err := fertility.SampleAges(t.AgeWeights, w.Start, w.Stop, k, t.MinSiblingGap, e.rng)
	if err != nil {
		return nil, fmt.Errorf("mainline sons of %d: %w", father.ID, err)
	}
	days := fertility.PlaceBirthDays(ages, mother.BirthYear(), t.MinSiblingGap, e.rng)

	limit := e.birthLimit(father, mother)
	n := sort.Search(len(days), func(i int) bool { return days[i] > limit })
	days = days[:n]
	heirs = min(heirs, len(days))
	if heirs == 0 {
		return nil, nil
	}

	picked := e.rng.SampleIndices(len(days), heirs)
	sort.Ints(picked)

	sons := make([]*people.Person, 0, heirs)
	for i, idx := range picked {
		last := i == len(picked)-1
		b := people.Birth{
			Day:       days[idx],
			Mortality: t.NonMainlineMortality,
			Father:    father,
			Mother:    mother,
			Dynasty:   father.Dynasty,
		}
		if last {
			b.Mortality = t.MainlineMortality
		}
		son := e.factory.CreateMale(b)
		son.SkipGeneration = !last
		e.recordPerson(son)
		sons = append(sons, son)
	}

	if err := e.setMarriage(father, mother, sons[0].BirthDay); err != nil {
		return nil, err
	}
	return sons, nil
}
