package booking

import (
	"time"
)

const dateLayout = "2006-01-02"

// Calendar knows which civil dates are non-working: Saturdays, Sundays
// and an injected holiday set.  Instants are reduced to civil dates in
// the calendar's reference location before any comparison.
type Calendar struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// NewCalendar builds a calendar for loc (UTC when nil).  Holidays are
// taken by their civil date in loc.
func NewCalendar(loc *time.Location, holidays ...time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calendar{loc: loc, holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.In(loc).Format(dateLayout)] = struct{}{}
	}
	return c
}

// Location returns the reference location.
func (c *Calendar) Location() *time.Location { return c.loc }

// civil drops the time of day.  The result is midnight UTC of the civil
// date so day arithmetic never crosses a DST transition.
func (c *Calendar) civil(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWorkingDay reports whether the civil date of t is a weekday that is
// not a holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	return c.isWorkingCivil(c.civil(t))
}

func (c *Calendar) isWorkingCivil(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d.Format(dateLayout)]
	return !holiday
}

// WorkingDays counts working days after start's date ("day 0", never
// counted) up to and including end's date.  It is 0 when end's date is
// not after start's date.
func (c *Calendar) WorkingDays(start, end time.Time) int {
	from := c.civil(start).AddDate(0, 0, 1)
	to := c.civil(end)
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.isWorkingCivil(d) {
			n++
		}
	}
	return n
}

// ParseHolidays parses YYYY-MM-DD dates in loc.
func ParseHolidays(loc *time.Location, dates []string) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return nil, invalid("holidays", "invalid date %q", s)
		}
		out = append(out, t)
	}
	return out, nil
}
