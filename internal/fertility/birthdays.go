package fertility

import (
	"sort"

	"github.com/talgya/dynasty-gen/internal/calendar"
	"github.com/talgya/dynasty-gen/internal/entropy"
)

// PlaceBirthDays turns mother ages into sorted absolute birth days. Each
// birth gets a random day within its year; within a run of ages exactly
// minGap apart the day offsets are sorted so consecutive siblings stay at
// least minGap full years apart at day resolution.
func PlaceBirthDays(ages []int, motherBirthYear, minGap int, rng *entropy.Stream) []int {
	n := len(ages)
	if n == 0 {
		return []int{}
	}

	years := make([]int, n)
	for i, a := range ages {
		years[i] = motherBirthYear + a
	}
	sort.Ints(years)

	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = rng.IntRange(1, calendar.DaysInYear)
	}

	start := -1
	for i := 1; i <= n; i++ {
		if i < n && years[i]-years[i-1] == minGap {
			if start < 0 {
				start = i - 1
			}
			continue
		}
		if start >= 0 {
			sort.Ints(offsets[start:i])
			start = -1
		}
	}

	days := make([]int, n)
	for i, y := range years {
		days[i] = calendar.YearStart(y) + offsets[i] - 1
	}
	sort.Ints(days)
	return days
}
