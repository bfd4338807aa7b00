// Package schedule derives due and expiry dates from an issue date.
package schedule

import (
	"time"

	"github.com/smallbiznis/claimdocs/internal/document/domain"
)

// DateLayout is the ISO-8601 calendar date used on the wire.
const DateLayout = time.DateOnly

// DeriveDate returns issue + days calendar days. Business days are not considered.
func DeriveDate(issue time.Time, days int) time.Time {
	return Truncate(issue).AddDate(0, 0, days)
}

// Truncate drops the clock part and normalizes to UTC midnight.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date, also accepting full RFC 3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(DateLayout, raw); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return Truncate(parsed), nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Tracker keeps the due/expiry date of one document. The derived value is
// recomputed whenever the issue date or validity changes; a manual override
// holds only until the next such change.
type Tracker struct {
	dates domain.DocumentDates
}

// NewTracker starts with a derived date.
func NewTracker(issue time.Time, days int) *Tracker {
	t := &Tracker{}
	t.dates.IssueDate = Truncate(issue)
	t.dates.ValidityDays = max(days, 0)
	t.derive()
	return t
}

// SetIssueDate changes the issue date and re-derives.
func (t *Tracker) SetIssueDate(issue time.Time) {
	t.dates.IssueDate = Truncate(issue)
	t.derive()
}

// SetValidityDays changes the validity and re-derives. Negative values become zero.
func (t *Tracker) SetValidityDays(days int) {
	t.dates.ValidityDays = max(days, 0)
	t.derive()
}

// Override pins the due/expiry date until the next input change.
func (t *Tracker) Override(date time.Time) {
	t.dates.DerivedDate = Truncate(date)
	t.dates.Source = domain.DateSourceManual
}

// Dates returns the current snapshot.
func (t *Tracker) Dates() domain.DocumentDates {
	return t.dates
}

func (t *Tracker) derive() {
	t.dates.DerivedDate = DeriveDate(t.dates.IssueDate, t.dates.ValidityDays)
	t.dates.Source = domain.DateSourceDerived
}
