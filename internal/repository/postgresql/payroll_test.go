package postgresql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthWindow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	t.Run("boundaries are local midnights", func(t *testing.T) {
		from, to, days := monthWindow(3, 2026, loc)

		assert.True(t, from.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)))
		assert.True(t, to.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, loc)))
		assert.Equal(t, 31, days)
	})

	t.Run("record dated the first stays in its own month", func(t *testing.T) {
		from, to, _ := monthWindow(3, 2026, loc)

		firstOfMarch := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
		assert.False(t, firstOfMarch.Before(from))
		assert.True(t, firstOfMarch.Before(to))

		// The previous month's window must exclude it.
		_, febTo, _ := monthWindow(2, 2026, loc)
		assert.False(t, firstOfMarch.Before(febTo))
	})

	t.Run("leap February", func(t *testing.T) {
		_, _, days := monthWindow(2, 2024, loc)
		assert.Equal(t, 29, days)
	})
}
