package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.004, 1.00},
		{1.006, 1.01},
		// 1.125 is exactly representable, so this exercises a true
		// half case: round-half-up gives 1.13, not banker's 1.12.
		{1.125, 1.13},
		{1380.0000000001, 1380.00},
		{0, 0},
		{120 * 11.50, 1380.00},
		{10 * 25.00, 250.00},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Round2(tc.in), "in=%v", tc.in)
	}
}
