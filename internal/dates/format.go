package dates

import "fmt"

// Placeholder is shown where a date is missing.
const Placeholder = "-"

// Short renders "M/D", used in deadline lists.
func Short(d Date) string {
	if d.IsZero() {
		return Placeholder
	}
	return fmt.Sprintf("%d/%d", int(d.t.Month()), d.t.Day())
}

// Long renders "YYYY/M/D", used in the per-company view.
func Long(d Date) string {
	if d.IsZero() {
		return Placeholder
	}
	return fmt.Sprintf("%d/%d/%d", d.t.Year(), int(d.t.Month()), d.t.Day())
}

// DaysUntil is the signed number of days from today to d. ok is false for a missing date.
func DaysUntil(today, d Date) (days int, ok bool) {
	if d.IsZero() || today.IsZero() {
		return 0, false
	}
	return int(d.t.Sub(today.t).Hours() / 24), true
}
