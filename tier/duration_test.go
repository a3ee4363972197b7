package tier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration_CanonicalForms(t *testing.T) {
	cases := map[string]time.Duration{
		"5s":    5 * time.Second,
		"1h":    time.Hour,
		"250ms": 250 * time.Millisecond,
		"30m":   30 * time.Minute,
		"2d":    48 * time.Hour,
		"1seconds": time.Second,
		"3hours":   3 * time.Hour,
		"4minutes": 4 * time.Minute,
		"2days":    48 * time.Hour,
	}

	for input, want := range cases {
		got, err := ParseDuration(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseDuration_BareInteger(t *testing.T) {
	got, err := ParseDuration(1500)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, got)
}

func TestParseDuration_Invalid(t *testing.T) {
	_, err := ParseDuration("5 fortnights")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ParseDuration("-5s")
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestDurationRoundTrip(t *testing.T) {
	canonical := []string{"5s", "1h", "250ms", "30m", "2d"}
	for _, s := range canonical {
		d, err := ParseDuration(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, FormatDuration(d), s)
	}
}
