package billing

import "time"

// monthLayout formats a period identifier, the YYYY-MM of its first day.
const monthLayout = "2006-01"

// CurrentPeriod derives the active billing period for a lease at the given
// date. Periods are anchored to the lease anniversary month rather than the
// calendar month: the lease-start month is advanced by the number of whole
// calendar months elapsed. Returns false when the lease has no start date.
func CurrentPeriod(lease Lease, today time.Time) (string, bool) {
	if lease.Start.IsZero() {
		return "", false
	}
	months := (today.Year()-lease.Start.Year())*12 + int(today.Month()) - int(lease.Start.Month())
	anchor := time.Date(lease.Start.Year(), lease.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	anchor = anchor.AddDate(0, months, 0)
	return anchor.Format(monthLayout), true
}

// NextDueDate computes the tenant's next rent due date. Before the lease
// starts the due date is the lease start; after it ends, the lease end.
// Otherwise it is the lease-start day-of-month in the soonest month that has
// not yet passed, clamped to the lease end.
func NextDueDate(lease Lease, today time.Time) time.Time {
	today = truncateDay(today)
	if lease.Start.IsZero() {
		return time.Time{}
	}
	if today.Before(truncateDay(lease.Start)) {
		return lease.Start
	}
	if !lease.End.IsZero() && today.After(truncateDay(lease.End)) {
		return lease.End
	}

	due := time.Date(today.Year(), today.Month(), lease.Start.Day(), 0, 0, 0, 0, time.UTC)
	if due.Before(today) {
		due = due.AddDate(0, 1, 0)
	}
	if !lease.End.IsZero() && due.After(lease.End) {
		return lease.End
	}
	return due
}

// PeriodStart parses a period identifier into its first-of-month date.
func PeriodStart(month string) (time.Time, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, ErrValidation
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
