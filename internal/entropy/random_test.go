package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float(), b.Float())
		require.Equal(t, a.IntRange(1, 365), b.IntRange(1, 365))
	}
	assert.Equal(t, a.Position(), b.Position())
	assert.Equal(t, int64(200), a.Position())
}

func TestIntRangeBounds(t *testing.T) {
	s := New(7)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		v := s.IntRange(-1, 5)
		require.GreaterOrEqual(t, v, -1)
		require.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 7)

	pos := s.Position()
	assert.Equal(t, 3, s.IntRange(3, 3))
	assert.Equal(t, pos, s.Position(), "degenerate range must not consume a draw")
}

func TestChoose(t *testing.T) {
	s := New(1)
	assert.Equal(t, -1, s.Choose(nil))
	assert.Equal(t, -1, s.Choose([]float64{0, 0}))

	for i := 0; i < 500; i++ {
		idx := s.Choose([]float64{0, 2, 0, 1})
		require.Contains(t, []int{1, 3}, idx)
	}

	counts := make([]int, 2)
	for i := 0; i < 20000; i++ {
		counts[s.Choose([]float64{3, 1})]++
	}
	assert.InDelta(t, 0.75, float64(counts[0])/20000, 0.02)
}

func TestSampleIndices(t *testing.T) {
	s := New(3)
	got := s.SampleIndices(10, 4)
	require.Len(t, got, 4)
	seen := map[int]bool{}
	for _, v := range got {
		assert.False(t, seen[v])
		seen[v] = true
		assert.True(t, v >= 0 && v < 10)
	}
	assert.Len(t, s.SampleIndices(3, 10), 3)
	assert.Nil(t, s.SampleIndices(3, 0))
}

func TestDeriveIsIndependent(t *testing.T) {
	s := New(5)
	d := s.Derive(300)
	assert.Equal(t, int64(305), d.Seed())
	d.Float()
	assert.Equal(t, int64(0), s.Position())
}
