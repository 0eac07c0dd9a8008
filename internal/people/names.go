package people

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/talgya/dynasty-gen/internal/entropy"
)

// ErrNoNames is returned when a culture's name files are missing or empty.
var ErrNoNames = errors.New("no names")

// NameProvider hands out given names.
type NameProvider interface {
	Name(sex Sex, rng *entropy.Stream) string
}

// ListProvider picks uniformly from fixed male and female name lists.
type ListProvider struct {
	Male   []string
	Female []string
}

// Name returns a random name for sex.
func (l *ListProvider) Name(sex Sex, rng *entropy.Stream) string {
	pool := l.Male
	if sex == SexFemale {
		pool = l.Female
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.IntRange(0, len(pool)-1)]
}

// DefaultNames returns the built-in name pools.
func DefaultNames() *ListProvider {
	return &ListProvider{Male: maleNames, Female: femaleNames}
}

// Culture describes naming conventions of a culture.
type Culture struct {
	Name string
	// FilePrefix selects <prefix>_names_male.txt and <prefix>_names_female.txt.
	FilePrefix string
	// CK3Code is the culture identifier in CK3 history files.
	CK3Code                 string
	WivesTakeHusbandSurname bool
	ExportNonDynastySpouses bool
}

var cultures = map[string]Culture{
	"chinese": {Name: "chinese", FilePrefix: "han", CK3Code: "han"},
	"english": {Name: "english", FilePrefix: "english", CK3Code: "english", WivesTakeHusbandSurname: true, ExportNonDynastySpouses: true},
	"french":  {Name: "french", FilePrefix: "french", CK3Code: "french", WivesTakeHusbandSurname: true, ExportNonDynastySpouses: true},
	"german":  {Name: "german", FilePrefix: "german", CK3Code: "german", WivesTakeHusbandSurname: true, ExportNonDynastySpouses: true},
}

// LookupCulture returns the named culture, falling back to english.
func LookupCulture(name string) Culture {
	if c, ok := cultures[strings.ToLower(name)]; ok {
		return c
	}
	return cultures["english"]
}

// CultureNames lists the known cultures in order.
func CultureNames() []string {
	out := make([]string, 0, len(cultures))
	for k := range cultures {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NameBook loads per-culture name lists from a directory and keeps each
// loaded culture for the lifetime of the book.
type NameBook struct {
	dir    string
	loaded map[string]*ListProvider
}

// NewNameBook creates a book reading name files from dir.
func NewNameBook(dir string) *NameBook {
	return &NameBook{dir: dir, loaded: make(map[string]*ListProvider)}
}

// Culture returns the name provider for a culture, loading it on first use.
func (b *NameBook) Culture(name string) (*ListProvider, error) {
	c := LookupCulture(name)
	if p, ok := b.loaded[c.Name]; ok {
		return p, nil
	}

	male, err := readNames(filepath.Join(b.dir, c.FilePrefix+"_names_male.txt"))
	if err != nil {
		return nil, fmt.Errorf("culture %s: %w", c.Name, err)
	}
	female, err := readNames(filepath.Join(b.dir, c.FilePrefix+"_names_female.txt"))
	if err != nil {
		return nil, fmt.Errorf("culture %s: %w", c.Name, err)
	}

	p := &ListProvider{Male: male, Female: female}
	b.loaded[c.Name] = p
	return p, nil
}

func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoNames)
		}
		return nil, err
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", path, ErrNoNames)
	}
	return names, nil
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
	"Dorian", "Edric", "Falk", "Gunnar", "Hugo", "Ivar", "Jorik",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
	"Eira", "Fern", "Gwen", "Hilde", "Inga", "Johanna", "Katla",
}
