package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/people"
)

// DefaultReligion is used when no religion is configured.
const DefaultReligion = "catholic"

// CK3Options controls the CK3 history export.
type CK3Options struct {
	Culture  people.Culture
	Religion string
	// DeathForLiving kills characters alive at the end on the following
	// day so the history file ends with no open lives.
	DeathForLiving bool
}

// WriteCK3 writes d as a CK3 character history file. Dynasty members come
// first as <house>_character_N, then wives from outside as <house>_wife_N.
func WriteCK3(w io.Writer, d *engine.Dynasty, opts CK3Options) error {
	if opts.Religion == "" {
		opts.Religion = DefaultReligion
	}
	house := houseKey(d.Name())
	endYear := calendar.YearOf(d.Config.End)
	playable := d.Config.Tunables.PlayableAge

	ids := make(map[people.PersonID]string)
	var order []*people.Person
	for g := range d.Generations {
		for _, p := range d.Generation(g) {
			ids[p.ID] = fmt.Sprintf("%s_character_%d", house, len(order)+1)
			order = append(order, p)
		}
	}
	members := len(order)
	for _, p := range order[:members] {
		s := d.Registry.Lookup(p.SpouseID)
		if s == nil {
			continue
		}
		if _, ok := ids[s.ID]; ok {
			continue
		}
		ids[s.ID] = fmt.Sprintf("%s_wife_%d", house, len(order)-members+1)
		order = append(order, s)
	}

	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}
	event := func(day int, body string) {
		line("\t%s = {", calendar.Format(day))
		line("\t\t%s", body)
		line("\t}")
	}

	for _, p := range order {
		line("%s = {", ids[p.ID])
		line("\tname = %q", p.GivenName)
		if p.Female() {
			line("\tfemale = yes")
		}
		if p.InDynasty() {
			line("\tdynasty = %s_dynasty", houseKey(p.Dynasty))
		}
		line("\treligion = %s", opts.Religion)
		line("\tculture = %s", opts.Culture.CK3Code)
		if id, ok := lookupID(ids, p.FatherID); ok {
			line("\tfather = %s", id)
		}
		if id, ok := lookupID(ids, p.MotherID); ok {
			line("\tmother = %s", id)
		}

		line("\t%s = {", calendar.Format(p.BirthDay))
		line("\t\tbirth = yes")
		if !p.Female() && endYear-p.BirthYear() < playable {
			line("\t\teffect = { add_character_flag = do_not_generate_starting_family }")
		}
		line("\t}")

		if id, ok := lookupID(ids, p.SpouseID); ok && p.MarriageDay != nil {
			event(*p.MarriageDay, "add_spouse = "+id)
		}

		switch {
		case !p.AliveAtEnd:
			event(p.DeathDay, "death = yes")
		case opts.DeathForLiving:
			event(d.Config.End+1, "death = yes")
		}
		line("}")
		line("")
	}
	return bw.Flush()
}

func lookupID(ids map[people.PersonID]string, ref *people.PersonID) (string, bool) {
	if ref == nil {
		return "", false
	}
	id, ok := ids[*ref]
	return id, ok
}
