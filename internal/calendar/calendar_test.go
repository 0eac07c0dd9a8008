package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dynasty-gen/internal/entropy"
)

func TestYearConversions(t *testing.T) {
	tests := []struct {
		year  int
		start int
	}{
		{1, 1},
		{2, 366},
		{50, 365*49 + 1},
		{0, -364},
		{-1, -729},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.start, YearStart(tt.year), "year %d", tt.year)
		assert.Equal(t, tt.year, YearOf(tt.start), "start of %d", tt.year)
		assert.Equal(t, tt.year, YearOf(tt.start+DaysInYear-1), "end of %d", tt.year)
	}
	assert.Equal(t, 730, YearsToDays(2))
}

func TestBookmarks(t *testing.T) {
	assert.Equal(t, YearStart(867), Start867)
	assert.Equal(t, YearStart(1066)+31+28+31+30+31+30+31+31+15-1, Start1066)
	assert.Equal(t, YearStart(1178)+31+28+31+30+31+30+31+31+30+1-1, Start1178)
	assert.Equal(t, "1066.9.15", Format(Start1066))
}

func TestDateRoundTrip(t *testing.T) {
	for _, d := range []int{1, 31, 32, 59, 60, 365, 366, Start1178, -1, -364} {
		y, m, day := ToDate(d)
		back, err := FromDate(y, m, day)
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}
	y, m, d := ToDate(365)
	assert.Equal(t, []int{1, 12, 31}, []int{y, m, d})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1100", YearStart(1100), false},
		{"1100.6", YearStart(1100) + 31 + 28 + 31 + 30 + 31, false},
		{"1100.6.15", YearStart(1100) + 31 + 28 + 31 + 30 + 31 + 14, false},
		{" 900.12.31 ", YearStart(900) + 364, false},
		{"1100.13.1", 0, true},
		{"1100.2.29", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"1.2.3.4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRandomDayInYear(t *testing.T) {
	rng := entropy.New(9)
	for i := 0; i < 1000; i++ {
		d := RandomDayInYear(10, rng)
		require.Equal(t, 10, YearOf(d))
	}
}
