package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"fri", "Monday", " TUE ", "friday"})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Friday, time.Monday, time.Tuesday}, days)

	days, err = ParseWeekdays([]string{"weekdays"})
	require.NoError(t, err)
	assert.Len(t, days, 5)

	_, err = ParseWeekdays([]string{"funday"})
	assert.Error(t, err)

	_, err = ParseWeekdays([]string{"fr"})
	assert.Error(t, err)
}

func TestGateAllows(t *testing.T) {
	gate, err := NewGate([]string{"fri"}, time.UTC)
	require.NoError(t, err)

	friday := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	monday := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

	assert.True(t, gate.Allows(friday))
	assert.False(t, gate.Allows(monday))
	assert.Equal(t, "Friday", gate.String())
}

func TestGateUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	gate, err := NewGate([]string{"sat"}, tokyo)
	require.NoError(t, err)

	// Friday 20:00 UTC is already Saturday in Tokyo.
	assert.True(t, gate.Allows(time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC)))
}

func TestEmptyGateAllowsEveryDay(t *testing.T) {
	gate, err := NewGate(nil, nil)
	require.NoError(t, err)

	for d := 0; d < 7; d++ {
		assert.True(t, gate.Allows(time.Date(2026, time.October, 12+d, 12, 0, 0, 0, time.UTC)))
	}
	assert.Equal(t, "every day", gate.String())
}
