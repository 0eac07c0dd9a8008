package engine

import (
	"fmt"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/people"
)

// Event categories.
const (
	CategoryBirth    = "birth"
	CategoryMarriage = "marriage"
	CategoryDeath    = "death"
)

// Event is a notable occurrence in the dynasty's history.
type Event struct {
	Day         int    `json:"day"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Date returns the event day in Y.M.D form.
func (e Event) Date() string {
	return calendar.Format(e.Day)
}

// recordPerson logs the birth of p and, when it falls before the end of the
// run, the death.
func (e *Engine) recordPerson(p *people.Person) {
	e.events = append(e.events, Event{
		Day:         p.BirthDay,
		Description: fmt.Sprintf("%s was born", displayName(p)),
		Category:    CategoryBirth,
	})
	if !p.AliveAtEnd {
		e.events = append(e.events, Event{
			Day:         p.DeathDay,
			Description: fmt.Sprintf("%s died at %d", displayName(p), p.Lifespan()),
			Category:    CategoryDeath,
		})
	}
}

func (e *Engine) recordMarriage(husband, wife *people.Person, day int) {
	e.events = append(e.events, Event{
		Day:         day,
		Description: fmt.Sprintf("%s married %s", displayName(husband), displayName(wife)),
		Category:    CategoryMarriage,
	})
}

func displayName(p *people.Person) string {
	if p.Dynasty == "" {
		return p.GivenName
	}
	return p.GivenName + " " + p.Dynasty
}
