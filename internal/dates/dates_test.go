package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, err := Parse("07/05/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.May, 7, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "07/05/2025", Format(got))

	tests := []string{
		"", " 07/05/2025", "07/05/2025 ", "7/05/2025", "07/5/2025", "07/05/25",
		"2025-05-07", "31/02/2025", "32/01/2025", "Date1",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.Error(t, err)
			assert.False(t, Valid(s))
		})
	}
}

func TestMonth(t *testing.T) {
	m, ok := Month("31/12/2024")
	assert.True(t, ok)
	assert.Equal(t, "2024-12", m)

	_, ok = Month("Date3")
	assert.False(t, ok)
}

func TestSort(t *testing.T) {
	ds := []string{"12/05/2025", "Date2", "01/01/2026", "bogus", "05/05/2025", "Date1"}
	Sort(ds)
	assert.Equal(t, []string{"05/05/2025", "12/05/2025", "01/01/2026", "Date2", "bogus", "Date1"}, ds)

	in := []string{"07/05/2025", "05/05/2025"}
	out := Sorted(in)
	assert.Equal(t, []string{"05/05/2025", "07/05/2025"}, out)
	assert.Equal(t, []string{"07/05/2025", "05/05/2025"}, in)
}

func TestParseDays(t *testing.T) {
	set, err := ParseDays([]string{"monday", " Wednesday ", "", "SUNDAY"})
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{0: true, 2: true, 6: true}, set)

	_, err = ParseDays([]string{"Monday", "Funday"})
	assert.Error(t, err)

	set, err = ParseDays(nil)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestSplitDaysAndWeekday(t *testing.T) {
	assert.Equal(t, []string{"Monday", "Wednesday"}, SplitDays(" Monday, ,Wednesday,"))
	assert.Equal(t, []string{}, SplitDays(""))

	mon, _ := Parse("05/05/2025")
	sun, _ := Parse("11/05/2025")
	assert.Equal(t, 0, Weekday(mon))
	assert.Equal(t, 6, Weekday(sun))
}
