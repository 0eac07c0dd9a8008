package fertility

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dynasty-gen/internal/demography"
	"github.com/talgya/dynasty-gen/internal/entropy"
)

// feasibleSubsets enumerates every sorted size-k subset of ages whose
// members are pairwise at least gap apart.
func feasibleSubsets(ages []int, k, gap int) [][]int {
	var out [][]int
	var walk func(from int, cur []int)
	walk = func(from int, cur []int) {
		if len(cur) == k {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := from; i < len(ages); i++ {
			if len(cur) > 0 && ages[i]-cur[len(cur)-1] < gap {
				continue
			}
			walk(i+1, append(cur, ages[i]))
		}
	}
	walk(0, nil)
	return out
}

func TestSampleAgesZero(t *testing.T) {
	rng := entropy.New(1)
	got, err := SampleAges(nil, 40, 10, 0, 2, rng)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, int64(0), rng.Position())
}

func TestSampleAgesProperties(t *testing.T) {
	weights := demography.DefaultTunables().AgeWeights
	rng := entropy.New(2024)

	windows := []struct{ start, stop, gap int }{
		{14, 39, 2},
		{14, 20, 2},
		{18, 30, 3},
		{14, 14, 2},
		{20, 39, 1},
	}
	for _, w := range windows {
		maxK := 1 + (w.stop-w.start)/w.gap
		for k := 1; k <= maxK; k++ {
			t.Run(fmt.Sprintf("%d-%d gap %d k %d", w.start, w.stop, w.gap, k), func(t *testing.T) {
				for trial := 0; trial < 20; trial++ {
					ages, err := SampleAges(weights, w.start, w.stop, k, w.gap, rng)
					require.NoError(t, err)
					require.Len(t, ages, k)
					for i, a := range ages {
						require.GreaterOrEqual(t, a, w.start)
						require.LessOrEqual(t, a, w.stop)
						if i > 0 {
							require.GreaterOrEqual(t, a-ages[i-1], w.gap)
						}
					}
				}
			})
		}
	}
}

func TestSampleAgesInfeasible(t *testing.T) {
	weights := demography.DefaultTunables().AgeWeights
	rng := entropy.New(3)

	tests := []struct{ start, stop, gap int }{
		{14, 39, 2},
		{14, 15, 2},
		{20, 29, 3},
	}
	for _, tt := range tests {
		k := 2 + (tt.stop-tt.start)/tt.gap
		_, err := SampleAges(weights, tt.start, tt.stop, k, tt.gap, rng)
		assert.ErrorIs(t, err, ErrInfeasible, "k=%d in [%d,%d]", k, tt.start, tt.stop)
	}
}

func TestSampleAgesConfigErrors(t *testing.T) {
	rng := entropy.New(4)
	weights := demography.Distribution{20: 1}

	_, err := SampleAges(weights, 30, 35, 1, 2, rng)
	assert.ErrorIs(t, err, demography.ErrInvalidConfig)

	_, err = SampleAges(weights, 14, 39, -1, 2, rng)
	assert.ErrorIs(t, err, demography.ErrInvalidConfig)

	_, err = SampleAges(weights, 14, 39, 1, 0, rng)
	assert.ErrorIs(t, err, demography.ErrInvalidConfig)
}

func TestZeroWeightAgesAreSkipped(t *testing.T) {
	weights := demography.Distribution{14: 1, 15: 0, 16: 1, 17: 0, 18: 1}
	rng := entropy.New(5)
	for i := 0; i < 200; i++ {
		ages, err := SampleAges(weights, 14, 18, 2, 1, rng)
		require.NoError(t, err)
		for _, a := range ages {
			require.Contains(t, []int{14, 16, 18}, a)
		}
	}
}

func TestTableProbabilities(t *testing.T) {
	weights := demography.Distribution{14: 1, 15: 2, 16: 3, 17: 1, 18: 2, 19: 1}
	tb, err := NewTable(weights, 14, 19, 2, 2)
	require.NoError(t, err)

	subsets := feasibleSubsets([]int{14, 15, 16, 17, 18, 19}, 2, 2)
	require.Len(t, subsets, 10)

	sum := 0.0
	for _, s := range subsets {
		sum += tb.Probability(s)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 1*3/tb.Total(), tb.Probability([]int{14, 16}), 1e-12)
	assert.Zero(t, tb.Probability([]int{14, 15}))
	assert.Zero(t, tb.Probability([]int{14}))
	assert.Zero(t, tb.Probability([]int{13, 16}))
}

// The sampled frequencies must match the exact weight-product distribution
// over feasible subsets. The chi-square bound is the 0.999 quantile for the
// subset count's degrees of freedom.
func TestSampleAgesMatchesExactDistribution(t *testing.T) {
	tests := []struct {
		name     string
		weights  demography.Distribution
		start    int
		stop     int
		k        int
		gap      int
		critical float64
	}{
		{
			name:     "pairs with gap two",
			weights:  demography.Distribution{14: 1, 15: 2, 16: 3, 17: 1, 18: 2, 19: 1},
			start:    14,
			stop:     19,
			k:        2,
			gap:      2,
			critical: 27.88, // df 9
		},
		{
			name:     "triples with gap two",
			weights:  demography.Distribution{20: 0.5, 21: 1, 22: 2, 23: 1, 24: 0.5, 25: 3, 26: 1},
			start:    20,
			stop:     26,
			k:        3,
			gap:      2,
			critical: 27.88, // df 9
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ages := make([]int, 0)
			for a := tt.start; a <= tt.stop; a++ {
				ages = append(ages, a)
			}
			subsets := feasibleSubsets(ages, tt.k, tt.gap)
			require.Len(t, subsets, 10)

			tb, err := NewTable(tt.weights, tt.start, tt.stop, tt.k, tt.gap)
			require.NoError(t, err)

			const trials = 40000
			rng := entropy.New(99)
			counts := map[string]int{}
			for i := 0; i < trials; i++ {
				got, err := tb.Sample(rng)
				require.NoError(t, err)
				counts[fmt.Sprint(got)]++
			}

			chi := 0.0
			observed := 0
			for _, s := range subsets {
				expected := tb.Probability(s) * trials
				obs := float64(counts[fmt.Sprint(s)])
				observed += counts[fmt.Sprint(s)]
				chi += (obs - expected) * (obs - expected) / expected
			}
			assert.Equal(t, trials, observed, "samples outside the feasible set")
			assert.Less(t, chi, tt.critical)
		})
	}
}
