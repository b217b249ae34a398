// Package calendar provides business-day arithmetic, a holiday set, and
// frequency/periods-per-year conversions shared by the returns, drawdown,
// and VaR components.
package calendar

import (
	"sort"
	"time"

	"github.com/arfinch/quantcore/result"
)

// Frequency is a sampling frequency for periodic returns.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

// PeriodsPerYear returns K, the annualization factor for this frequency
// (Daily=252, Weekly=52, Monthly=12, Quarterly=4, Yearly=1).
func (f Frequency) PeriodsPerYear() float64 {
	switch f {
	case Daily:
		return 252
	case Weekly:
		return 52
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Yearly:
		return 1
	default:
		return 252
	}
}

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	case Yearly:
		return "Yearly"
	default:
		return "Unknown"
	}
}

// PeriodStart returns the canonical start timestamp of the period
// containing t, used by resample to label output buckets.
func (f Frequency) PeriodStart(t time.Time) time.Time {
	switch f {
	case Daily:
		return truncateToDay(t)
	case Weekly:
		d := truncateToDay(t)
		// ISO week starts Monday.
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case Monthly:
		d := truncateToDay(t)
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	case Quarterly:
		d := truncateToDay(t)
		q := (int(d.Month()) - 1) / 3
		return time.Date(d.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, d.Location())
	case Yearly:
		d := truncateToDay(t)
		return time.Date(d.Year(), 1, 1, 0, 0, 0, 0, d.Location())
	default:
		return truncateToDay(t)
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekendRule decides whether a given weekday is a non-trading day.
type WeekendRule func(time.Weekday) bool

// DefaultWeekendRule treats Saturday and Sunday as weekends.
func DefaultWeekendRule(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

// BusinessCalendar is a set of weekend rules plus a set of holiday dates.
// is_business_day(d) holds iff d is not a weekend and not a holiday.
type BusinessCalendar struct {
	weekend  WeekendRule
	holidays map[time.Time]struct{}
}

// New constructs a BusinessCalendar. A nil weekend rule defaults to
// DefaultWeekendRule (Sat/Sun); an explicit constructor rather than a
// mutable package-level default.
func New(weekend WeekendRule, holidays []time.Time) *BusinessCalendar {
	if weekend == nil {
		weekend = DefaultWeekendRule
	}
	set := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		set[truncateToDay(h)] = struct{}{}
	}
	return &BusinessCalendar{weekend: weekend, holidays: set}
}

// IsBusinessDay reports whether d is neither a weekend nor a holiday.
func (c *BusinessCalendar) IsBusinessDay(d time.Time) bool {
	if c.weekend(d.Weekday()) {
		return false
	}
	_, holiday := c.holidays[truncateToDay(d)]
	return !holiday
}

// NextBusinessDay returns the next business day strictly after d.
func (c *BusinessCalendar) NextBusinessDay(d time.Time) time.Time {
	next := truncateToDay(d).AddDate(0, 0, 1)
	for !c.IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// BusinessDaysBetween counts business days in (start, end].
func (c *BusinessCalendar) BusinessDaysBetween(start, end time.Time) (int, error) {
	start, end = truncateToDay(start), truncateToDay(end)
	if start.After(end) {
		return 0, result.New(result.InvalidDateRange, "start must not be after end")
	}
	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count, nil
}

// Holidays returns the holiday set in ascending order.
func (c *BusinessCalendar) Holidays() []time.Time {
	out := make([]time.Time, 0, len(c.holidays))
	for h := range c.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
