package fertility

import (
	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/entropy"
)

// Window is a mother's usable fertile age range, inclusive. Stop < Start
// means no exposure at all.
type Window struct {
	Start int
	Stop  int
}

// Empty reports whether the window holds no age.
func (w Window) Empty() bool {
	return w.Stop < w.Start
}

// Years returns the inclusive width of the window.
func (w Window) Years() int {
	if w.Empty() {
		return 0
	}
	return w.Stop - w.Start + 1
}

// FertileWindow computes a mother's usable ages. The canonical window is cut
// short by her own death, the father's death and the simulation end, all
// measured in the mother's years of age.
func FertileWindow(motherBirthYear, motherDeathYear, fatherDeathYear, endYear int, t demography.Tunables) Window {
	stop := min(
		t.FertileStop,
		motherDeathYear-motherBirthYear,
		fatherDeathYear-motherBirthYear,
		endYear-motherBirthYear,
	)
	return Window{Start: t.FertileStart, Stop: stop}
}

// MaxChildren is the largest count that fits in the window with siblings at
// least minGap years apart.
func MaxChildren(w Window, minGap int) int {
	if w.Empty() || minGap < 1 {
		return 0
	}
	return 1 + (w.Stop-w.Start)/minGap
}

// Scale thins baselineK by the exposure ratio usableYears/fullWindowYears,
// clamped to [0, 1]: each notional child survives independently.
func Scale(baselineK, usableYears, fullWindowYears int, rng *entropy.Stream) int {
	if baselineK <= 0 || fullWindowYears <= 0 {
		return 0
	}
	ratio := float64(usableYears) / float64(fullWindowYears)
	ratio = max(0, min(1, ratio))

	realized := 0
	for i := 0; i < baselineK; i++ {
		if rng.Bernoulli(ratio) {
			realized++
		}
	}
	return realized
}

// Realize applies exposure scaling to baselineK and caps the result at the
// gap-feasible maximum for the window.
func Realize(baselineK int, w Window, t demography.Tunables, rng *entropy.Stream) int {
	k := Scale(baselineK, w.Years(), t.FullWindowYears(), rng)
	return min(k, MaxChildren(w, t.MinSiblingGap))
}

// DrawChildren returns the sorted birth days of a couple's children. It
// returns nil when the window is empty or the realized count is zero.
func DrawChildren(baselineK int, w Window, motherBirthYear int, t demography.Tunables, rng *entropy.Stream) ([]int, error) {
	if w.Empty() || baselineK <= 0 {
		return nil, nil
	}
	k := Realize(baselineK, w, t, rng)
	if k <= 0 {
		return nil, nil
	}
	ages, err := SampleAges(t.AgeWeights, w.Start, w.Stop, k, t.MinSiblingGap, rng)
	if err != nil {
		return nil, err
	}
	return PlaceBirthDays(ages, motherBirthYear, t.MinSiblingGap, rng), nil
}
