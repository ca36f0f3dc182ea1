// Package retention decides which archives of one machine survive a
// grandfather-father-son policy: every archive younger than the daily boundary,
// one per ISO week up to the weekly boundary, and one per calendar month beyond.
package retention

import (
	"slices"
	"time"

	"github.com/raoulx24/tarsnap-pruner/internal/archive"
)

// Tier is the retention class of an archive.
type Tier string

const (
	TierUnknown Tier = "unknown"
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"
)

type dated struct {
	archive archive.Archive
	date    time.Time
}

type bucketKey struct {
	year   int
	period int
}

func isoWeek(t time.Time) bucketKey {
	y, w := t.ISOWeek()
	return bucketKey{year: y, period: w}
}

func calendarMonth(t time.Time) bucketKey {
	return bucketKey{year: t.Year(), period: int(t.Month())}
}

// Schedule is the outcome of classifying one machine's archives.
// It is computed once in New and never changes; accessors return copies.
type Schedule struct {
	policy Policy
	today  time.Time

	knowns   []archive.Archive
	unknowns []archive.Archive

	dailies   []archive.Archive
	weeklies  []archive.Archive
	monthlies []archive.Archive

	weekliesToKeep   []archive.Archive
	weekliesToPrune  []archive.Archive
	monthliesToKeep  []archive.Archive
	monthliesToPrune []archive.Archive

	tiers map[string]Tier
}

// New classifies archives relative to today. Archives with a date are ordered
// ascending by date (stable for equal dates); archives without one keep input order.
func New(archives []archive.Archive, policy Policy, today time.Time) (*Schedule, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	s := &Schedule{
		policy: policy,
		today:  archive.Day(today),
		tiers:  make(map[string]Tier, len(archives)),
	}

	var knowns []dated
	for _, a := range archives {
		d, ok := a.Date()
		if !ok {
			s.unknowns = append(s.unknowns, a)
			s.tiers[a.Name()] = TierUnknown
			continue
		}
		knowns = append(knowns, dated{archive: a, date: d})
	}
	slices.SortStableFunc(knowns, func(x, y dated) int {
		return x.date.Compare(y.date)
	})

	var weeklies, monthlies []dated
	for _, k := range knowns {
		s.knowns = append(s.knowns, k.archive)

		// future archives have e < 0 and land in the daily tier
		e := archive.DaysBetween(k.date, s.today)
		switch {
		case e < policy.DailyBoundary:
			s.dailies = append(s.dailies, k.archive)
			s.tiers[k.archive.Name()] = TierDaily
		case e < policy.WeeklyBoundary:
			weeklies = append(weeklies, k)
			s.weeklies = append(s.weeklies, k.archive)
			s.tiers[k.archive.Name()] = TierWeekly
		default:
			monthlies = append(monthlies, k)
			s.monthlies = append(s.monthlies, k.archive)
			s.tiers[k.archive.Name()] = TierMonthly
		}
	}

	s.weekliesToKeep, s.weekliesToPrune = survivors(weeklies, isoWeek)
	s.monthliesToKeep, s.monthliesToPrune = survivors(monthlies, calendarMonth)

	return s, nil
}

// survivors keeps the last archive of each bucket. tier must be sorted ascending,
// so the last one is the latest date, and the later input among equal dates.
func survivors(tier []dated, key func(time.Time) bucketKey) (keep, prune []archive.Archive) {
	last := make(map[bucketKey]int, len(tier))
	for i, d := range tier {
		last[key(d.date)] = i
	}
	for i, d := range tier {
		if last[key(d.date)] == i {
			keep = append(keep, d.archive)
		} else {
			prune = append(prune, d.archive)
		}
	}
	return keep, prune
}

// Policy returns the boundaries the schedule was built with.
func (s *Schedule) Policy() Policy { return s.policy }

// Today returns the calendar date ages were computed against.
func (s *Schedule) Today() time.Time { return s.today }

// Knowns returns the archives with a date, oldest first.
func (s *Schedule) Knowns() []archive.Archive { return slices.Clone(s.knowns) }

// Unknowns returns the archives without a date, in input order.
func (s *Schedule) Unknowns() []archive.Archive { return slices.Clone(s.unknowns) }

func (s *Schedule) Dailies() []archive.Archive   { return slices.Clone(s.dailies) }
func (s *Schedule) Weeklies() []archive.Archive  { return slices.Clone(s.weeklies) }
func (s *Schedule) Monthlies() []archive.Archive { return slices.Clone(s.monthlies) }

func (s *Schedule) WeekliesToKeep() []archive.Archive   { return slices.Clone(s.weekliesToKeep) }
func (s *Schedule) WeekliesToPrune() []archive.Archive  { return slices.Clone(s.weekliesToPrune) }
func (s *Schedule) MonthliesToKeep() []archive.Archive  { return slices.Clone(s.monthliesToKeep) }
func (s *Schedule) MonthliesToPrune() []archive.Archive { return slices.Clone(s.monthliesToPrune) }

// ArchivesToPrune returns unknowns, then monthly prunes, then weekly prunes.
// Dailies and survivors never appear here.
func (s *Schedule) ArchivesToPrune() []archive.Archive {
	out := make([]archive.Archive, 0, len(s.unknowns)+len(s.monthliesToPrune)+len(s.weekliesToPrune))
	out = append(out, s.unknowns...)
	out = append(out, s.monthliesToPrune...)
	out = append(out, s.weekliesToPrune...)
	return out
}

// ArchivesToKeep returns every archive that survives, oldest first.
func (s *Schedule) ArchivesToKeep() []archive.Archive {
	out := make([]archive.Archive, 0, len(s.monthliesToKeep)+len(s.weekliesToKeep)+len(s.dailies))
	out = append(out, s.monthliesToKeep...)
	out = append(out, s.weekliesToKeep...)
	out = append(out, s.dailies...)
	return out
}

// Tier returns the tier a was classified into. Archives not passed to New
// report TierUnknown.
func (s *Schedule) Tier(a archive.Archive) Tier {
	if t, ok := s.tiers[a.Name()]; ok {
		return t
	}
	return TierUnknown
}

// Keeps reports whether a survives this schedule.
func (s *Schedule) Keeps(a archive.Archive) bool {
	switch s.Tier(a) {
	case TierDaily:
		return true
	case TierWeekly:
		return slices.ContainsFunc(s.weekliesToKeep, a.Equal)
	case TierMonthly:
		return slices.ContainsFunc(s.monthliesToKeep, a.Equal)
	}
	return false
}
