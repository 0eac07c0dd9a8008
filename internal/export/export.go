// Package export renders a generated dynasty into interchange formats:
// GEDCOM 5.5.1 for genealogy software and CK3 character history files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/people"
)

// WriteFile creates path and streams an export into it.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// houseKey turns a dynasty name into an identifier fragment.
func houseKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// membersAndSpouses lists generation members in generation order, each
// followed by a spouse who is not a member when keep accepts it.
func membersAndSpouses(d *engine.Dynasty, keep func(spouse *people.Person) bool) []*people.Person {
	seen := make(map[people.PersonID]bool)
	var out []*people.Person
	for g := range d.Generations {
		for _, p := range d.Generation(g) {
			if !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, p)
			}
			s := d.Registry.Lookup(p.SpouseID)
			if s == nil || seen[s.ID] || !keep(s) {
				continue
			}
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out
}
