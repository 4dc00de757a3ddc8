package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextBookingCode(t *testing.T) {
	code, err := NextBookingCode(2025, "")
	require.NoError(t, err)
	require.Equal(t, "25001", code)

	code, err = NextBookingCode(2025, "25041")
	require.NoError(t, err)
	require.Equal(t, "25042", code)

	code, err = NextBookingCode(2025, "25998")
	require.NoError(t, err)
	require.Equal(t, "25999", code)
}

func TestNextBookingCode_NewYearResets(t *testing.T) {
	code, err := NextBookingCode(2026, "25734")
	require.NoError(t, err)
	require.Equal(t, "26001", code)
}

func TestNextBookingCode_Exhausted(t *testing.T) {
	_, err := NextBookingCode(2025, "25999")
	require.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestNextBookingCode_Malformed(t *testing.T) {
	_, err := NextBookingCode(2025, "25x1")
	require.Error(t, err)
	_, err = NextBookingCode(2025, "25abc")
	require.Error(t, err)
}

func TestNextBookingCode_StrictlyIncreasing(t *testing.T) {
	prev := ""
	for i := 0; i < 50; i++ {
		next, err := NextBookingCode(2030, prev)
		require.NoError(t, err)
		require.Greater(t, next, prev)
		prev = next
	}
	require.Equal(t, "30050", prev)
}

func TestCodePrefix(t *testing.T) {
	require.Equal(t, "25", CodePrefix(2025))
	require.Equal(t, "00", CodePrefix(2100))
	require.Equal(t, "09", CodePrefix(2009))
}
