// Package archive models a single tarsnap archive and the date encoded in its name.
package archive

import (
	"regexp"
	"time"
)

// DateLayout is the layout of the date embedded in archive names.
const DateLayout = "2006-01-02"

// the greedy prefix makes the capture land on the last date-like substring.
var datePattern = regexp.MustCompile(`.*(\d{4}-\d{2}-\d{2})`)

// Archive is one archive as named by the backup service.
// The date is derived from the name on every call and never stored.
type Archive struct {
	name string
}

// New wraps an archive name.
func New(name string) Archive {
	return Archive{name: name}
}

// FromNames builds archives for each name, preserving order.
func FromNames(names []string) []Archive {
	out := make([]Archive, 0, len(names))
	for _, n := range names {
		out = append(out, New(n))
	}
	return out
}

// Name returns the archive name.
func (a Archive) Name() string { return a.name }

// String returns the archive name.
func (a Archive) String() string { return a.name }

// Equal reports whether both archives carry the same name.
func (a Archive) Equal(b Archive) bool { return a.name == b.name }

// Date returns the calendar date found in the name, if any.
func (a Archive) Date() (time.Time, bool) {
	return ParseDate(a.name)
}

// Elapsed returns the number of calendar days between the archive date and today.
// The result is negative for archives dated after today.
func (a Archive) Elapsed(today time.Time) (int, bool) {
	d, ok := a.Date()
	if !ok {
		return 0, false
	}
	return DaysBetween(d, today), true
}

// ParseDate extracts the last YYYY-MM-DD substring of name and validates it as a
// calendar date. An invalid last match yields no date.
func ParseDate(name string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Day truncates t to its calendar date in t's own location, expressed in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
