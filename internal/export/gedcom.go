package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/people"
)

// DefaultSource names the generator in GEDCOM headers.
const DefaultSource = "Dynasty Generator"

// GEDCOMOptions controls the GEDCOM export.
type GEDCOMOptions struct {
	Source string
	// Date is written to the header; zero omits it.
	Date    time.Time
	Culture people.Culture
}

// WriteGEDCOM writes d as a GEDCOM 5.5.1 lineage-linked file. Deaths after
// the end of the run are left out; the culture decides whether wives from
// outside the dynasty appear and which surname they carry.
func WriteGEDCOM(w io.Writer, d *engine.Dynasty, opts GEDCOMOptions) error {
	if opts.Source == "" {
		opts.Source = DefaultSource
	}
	endYear := calendar.YearOf(d.Config.End)

	list := membersAndSpouses(d, func(s *people.Person) bool {
		return s.InDynasty() || opts.Culture.ExportNonDynastySpouses
	})
	indi := make(map[people.PersonID]string, len(list))
	for i, p := range list {
		indi[p.ID] = fmt.Sprintf("@I%d@", i+1)
	}

	// One family per man with an exported wife or exported children.
	type family struct {
		id       string
		father   *people.Person
		mother   *people.Person
		children []*people.Person
	}
	var families []*family
	famOf := make(map[people.PersonID][]string) // spouse side
	famChild := make(map[people.PersonID]string)
	for _, p := range list {
		if p.Female() {
			continue
		}
		var kids []*people.Person
		for _, c := range d.Registry.ChildrenOf(p) {
			if _, ok := indi[c.ID]; ok {
				kids = append(kids, c)
			}
		}
		var mother *people.Person
		if m := d.Registry.Lookup(p.SpouseID); m != nil {
			if _, ok := indi[m.ID]; ok {
				mother = m
			}
		}
		if len(kids) == 0 && mother == nil {
			continue
		}
		f := &family{id: fmt.Sprintf("@F%d@", len(families)+1), father: p, mother: mother, children: kids}
		if mother != nil {
			famOf[mother.ID] = append(famOf[mother.ID], f.id)
		}
		famOf[p.ID] = append(famOf[p.ID], f.id)
		for _, c := range kids {
			famChild[c.ID] = f.id
		}
		families = append(families, f)
	}

	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line("0 HEAD")
	line("1 SOUR %s", opts.Source)
	line("1 GEDC")
	line("2 VERS 5.5.1")
	line("2 FORM LINEAGE-LINKED")
	line("1 CHAR UTF-8")
	if !opts.Date.IsZero() {
		line("1 DATE %s", strings.ToUpper(opts.Date.Format("2 Jan 2006")))
	}
	line("1 SUBM @SUB1@")
	line("0 @SUB1@ SUBM")
	line("1 NAME %s", opts.Source)

	for _, p := range list {
		surname := p.Dynasty
		if surname == "" && opts.Culture.WivesTakeHusbandSurname {
			if h := d.Registry.Lookup(p.SpouseID); h != nil {
				surname = h.Dynasty
			}
		}
		sex := "M"
		if p.Female() {
			sex = "F"
		}

		line("0 %s INDI", indi[p.ID])
		line("1 NAME %s /%s/", p.GivenName, surname)
		line("1 SEX %s", sex)
		line("1 BIRT")
		line("2 DATE ABT %d", p.BirthYear())
		if p.DeathYear() <= endYear {
			line("1 DEAT")
			line("2 DATE ABT %d", p.DeathYear())
		}
		for _, fid := range famOf[p.ID] {
			line("1 FAMS %s", fid)
		}
		if fid, ok := famChild[p.ID]; ok {
			line("1 FAMC %s", fid)
		}
	}

	for _, f := range families {
		line("0 %s FAM", f.id)
		line("1 HUSB %s", indi[f.father.ID])
		if f.mother != nil {
			line("1 WIFE %s", indi[f.mother.ID])
		}
		if f.father.MarriageDay != nil {
			line("1 MARR")
			line("2 DATE ABT %d", calendar.YearOf(*f.father.MarriageDay))
		}
		for _, c := range f.children {
			line("1 CHIL %s", indi[c.ID])
		}
	}
	line("0 TRLR")

	return bw.Flush()
}
