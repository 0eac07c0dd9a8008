// Package calendar converts between calendar years, month/day dates and the
// absolute day count used as the simulation's time unit. Day 1 is January 1
// of year 1; every year has 365 days and leap years are ignored.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/talgya/dynasty-gen/internal/entropy"
)

// DaysInYear is the fixed length of a simulation year.
const DaysInYear = 365

// ErrInvalidDate is returned for malformed or out-of-range dates.
var ErrInvalidDate = errors.New("invalid date")

// DaysInMonth holds month lengths for a non-leap year.
var DaysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Bookmark start dates.
var (
	Start867  = MustDate(867, 1, 1)
	Start1066 = MustDate(1066, 9, 15)
	Start1178 = MustDate(1178, 10, 1)
)

// YearStart returns the absolute day of January 1 of year.
func YearStart(year int) int {
	return DaysInYear*(year-1) + 1
}

// YearOf returns the calendar year containing an absolute day.
func YearOf(day int) int {
	return floorDiv(day-1, DaysInYear) + 1
}

// YearsToDays converts a duration in years to days.
func YearsToDays(years int) int {
	return years * DaysInYear
}

// RandomDayInYear returns a uniformly random absolute day within year.
func RandomDayInYear(year int, rng *entropy.Stream) int {
	return YearStart(year) + rng.IntRange(1, DaysInYear) - 1
}

// FromDate converts a calendar date to an absolute day.
func FromDate(year, month, day int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d: %w", month, ErrInvalidDate)
	}
	if day < 1 || day > DaysInMonth[month-1] {
		return 0, fmt.Errorf("day %d of month %d: %w", day, month, ErrInvalidDate)
	}
	offset := 0
	for m := 0; m < month-1; m++ {
		offset += DaysInMonth[m]
	}
	return YearStart(year) + offset + day - 1, nil
}

// MustDate is FromDate for constant dates; it panics on invalid input.
func MustDate(year, month, day int) int {
	d, err := FromDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// ToDate converts an absolute day to its calendar year, month and day.
func ToDate(abs int) (year, month, day int) {
	year = YearOf(abs)
	rem := abs - YearStart(year)
	for m, n := range DaysInMonth {
		if rem < n {
			return year, m + 1, rem + 1
		}
		rem -= n
	}
	// Unreachable: rem is always within [0, 365).
	return year, 12, DaysInMonth[11]
}

// Format renders an absolute day as Y.M.D without leading zeros.
func Format(abs int) string {
	y, m, d := ToDate(abs)
	return fmt.Sprintf("%d.%d.%d", y, m, d)
}

// ParseDate parses "Y", "Y.M" or "Y.M.D". Missing month and day default to 1.
func ParseDate(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidDate)
	}
	nums := []int{0, 1, 1}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%q: %w", s, ErrInvalidDate)
		}
		nums[i] = n
	}
	return FromDate(nums[0], nums[1], nums[2])
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
