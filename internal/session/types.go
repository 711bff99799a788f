// Package session provides the SQLite-backed registry of policy sessions
// listed on the dashboard.
package session

import (
	"fmt"
	"time"
)

// Stats summarizes the registry for the dashboard cards.
type Stats struct {
	TotalPolicies    int
	CompliancePassed int
	PendingReviews   int
}

// Record is a completed wizard run to register.
type Record struct {
	ID              string
	Type            string
	Title           string
	DocumentID      string
	CompliantItems  int
	ComplianceTotal int
}

// relativeTime renders the dashboard "last updated" label.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
