package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrentPeriodAnchorsToLeaseMonth(t *testing.T) {
	lease := Lease{Start: date(2024, 1, 15)}

	cases := []struct {
		today  time.Time
		period string
	}{
		{date(2024, 1, 15), "2024-01"},
		{date(2024, 1, 31), "2024-01"},
		{date(2024, 2, 1), "2024-02"},
		{date(2024, 3, 20), "2024-03"},
		{date(2024, 12, 31), "2024-12"},
		{date(2025, 1, 2), "2025-01"},
	}
	for _, tc := range cases {
		period, ok := CurrentPeriod(lease, tc.today)
		require.True(t, ok)
		require.Equal(t, tc.period, period, "today=%s", tc.today)
	}
}

func TestCurrentPeriodWithoutLeaseStart(t *testing.T) {
	_, ok := CurrentPeriod(Lease{}, date(2024, 3, 20))
	require.False(t, ok)
}

func TestNextDueDateBeforeLeaseStart(t *testing.T) {
	lease := Lease{Start: date(2024, 6, 10)}
	due := NextDueDate(lease, date(2024, 3, 1))
	require.Equal(t, date(2024, 6, 10), due)
}

func TestNextDueDateAfterLeaseEnd(t *testing.T) {
	lease := Lease{Start: date(2023, 1, 10), End: date(2024, 1, 9)}
	due := NextDueDate(lease, date(2024, 3, 1))
	require.Equal(t, date(2024, 1, 9), due)
}

func TestNextDueDateThisMonth(t *testing.T) {
	lease := Lease{Start: date(2024, 1, 15), End: date(2025, 1, 14)}
	due := NextDueDate(lease, date(2024, 3, 10))
	require.Equal(t, date(2024, 3, 15), due)
}

func TestNextDueDateRollsToNextMonth(t *testing.T) {
	lease := Lease{Start: date(2024, 1, 15), End: date(2025, 1, 14)}
	due := NextDueDate(lease, date(2024, 3, 20))
	require.Equal(t, date(2024, 4, 15), due)
}

func TestNextDueDateOnTheDay(t *testing.T) {
	lease := Lease{Start: date(2024, 1, 15), End: date(2025, 1, 14)}
	due := NextDueDate(lease, date(2024, 3, 15))
	require.Equal(t, date(2024, 3, 15), due)
}

func TestNextDueDateClampedToLeaseEnd(t *testing.T) {
	lease := Lease{Start: date(2024, 1, 15), End: date(2024, 4, 10)}
	due := NextDueDate(lease, date(2024, 3, 20))
	require.Equal(t, date(2024, 4, 10), due)
}

func TestPeriodStartRejectsGarbage(t *testing.T) {
	_, err := PeriodStart("March 2024")
	require.ErrorIs(t, err, ErrValidation)

	start, err := PeriodStart("2024-03")
	require.NoError(t, err)
	require.Equal(t, date(2024, 3, 1), start)
}
