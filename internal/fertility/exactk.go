// Package fertility places children in a mother's fertile window: exact-k
// sampling of birth ages under a minimum sibling gap, conversion of ages to
// birth days, and exposure scaling of the child count.
package fertility

import (
	"errors"
	"fmt"

	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/entropy"
)

var (
	// ErrInfeasible means no gap-respecting set of the requested size exists
	// in the age window.
	ErrInfeasible = errors.New("infeasible sampling request")

	// ErrInternal means the sampling walk failed despite a nonzero total mass.
	ErrInternal = errors.New("internal sampling inconsistency")
)

// Table is the dynamic-programming table for drawing exactly k ages from a
// window. mass[i][t] is the total weight product of all gap-respecting
// subsets of size t drawn from ages[i:].
type Table struct {
	ages    []int
	weights []float64
	next    []int
	mass    [][]float64
	k       int
	minGap  int
}

// NewTable builds the table for ages in [startAge, stopAge] with positive
// weight. It fails with ErrInfeasible when no valid size-k subset exists.
func NewTable(weights demography.Distribution, startAge, stopAge, k, minGap int) (*Table, error) {
	if k < 0 {
		return nil, fmt.Errorf("negative child count %d: %w", k, demography.ErrInvalidConfig)
	}
	if minGap < 1 {
		return nil, fmt.Errorf("min gap %d: %w", minGap, demography.ErrInvalidConfig)
	}

	tb := &Table{k: k, minGap: minGap}
	for age := startAge; age <= stopAge; age++ {
		if w := weights[age]; w > 0 {
			tb.ages = append(tb.ages, age)
			tb.weights = append(tb.weights, w)
		}
	}
	n := len(tb.ages)
	if n == 0 && k > 0 {
		return nil, fmt.Errorf("no positive weight in ages [%d, %d]: %w", startAge, stopAge, demography.ErrInvalidConfig)
	}

	// next[i] is the first index a sibling may occupy once ages[i] is taken.
	tb.next = make([]int, n)
	j := 0
	for i, a := range tb.ages {
		if j < i+1 {
			j = i + 1
		}
		for j < n && tb.ages[j] < a+minGap {
			j++
		}
		tb.next[i] = j
	}

	tb.mass = make([][]float64, n+1)
	for i := range tb.mass {
		tb.mass[i] = make([]float64, k+1)
		tb.mass[i][0] = 1
	}
	for i := n - 1; i >= 0; i-- {
		for t := 1; t <= k; t++ {
			tb.mass[i][t] = tb.mass[i+1][t] + tb.weights[i]*tb.mass[tb.next[i]][t-1]
		}
	}

	if tb.mass[0][k] == 0 {
		return nil, fmt.Errorf("cannot place %d children in ages [%d, %d] with gap %d: %w",
			k, startAge, stopAge, minGap, ErrInfeasible)
	}
	return tb, nil
}

// Total returns the weight mass of every feasible size-k subset.
func (tb *Table) Total() float64 {
	return tb.mass[0][tb.k]
}

// Probability returns the exact probability that Sample yields the given
// sorted set of ages. Sets that break the gap rule have probability zero.
func (tb *Table) Probability(ages []int) float64 {
	if len(ages) != tb.k {
		return 0
	}
	p := 1.0
	for i, a := range ages {
		if i > 0 && a-ages[i-1] < tb.minGap {
			return 0
		}
		idx := tb.index(a)
		if idx < 0 {
			return 0
		}
		p *= tb.weights[idx]
	}
	return p / tb.Total()
}

// Sample walks the table top-down, including ages[i] with probability equal
// to the share of mass that takes it. The result is sorted ascending.
func (tb *Table) Sample(rng *entropy.Stream) ([]int, error) {
	n := len(tb.ages)
	chosen := make([]int, 0, tb.k)
	i, t := 0, tb.k
	for t > 0 && i < n {
		skip := tb.mass[i+1][t]
		take := tb.weights[i] * tb.mass[tb.next[i]][t-1]
		denom := skip + take
		if denom <= 0 {
			break
		}
		if rng.Float() < take/denom {
			chosen = append(chosen, tb.ages[i])
			i = tb.next[i]
			t--
		} else {
			i++
		}
	}
	if len(chosen) != tb.k {
		return nil, fmt.Errorf("expected %d ages, drew %d: %w", tb.k, len(chosen), ErrInternal)
	}
	return chosen, nil
}

func (tb *Table) index(age int) int {
	for i, a := range tb.ages {
		if a == age {
			return i
		}
	}
	return -1
}

// SampleAges draws exactly k ages from [startAge, stopAge], pairwise at least
// minGap apart, with probability proportional to the product of the chosen
// ages' weights. k == 0 returns an empty slice without building a table.
func SampleAges(weights demography.Distribution, startAge, stopAge, k, minGap int, rng *entropy.Stream) ([]int, error) {
	if k == 0 {
		return []int{}, nil
	}
	tb, err := NewTable(weights, startAge, stopAge, k, minGap)
	if err != nil {
		return nil, err
	}
	return tb.Sample(rng)
}
