package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Layout is the DD/MM/YYYY form used by the portal and by every stored date.
const Layout = "02/01/2006"

// InvalidDate is what Format renders for the zero Date.
const InvalidDate = "Invalid date"

var datePrefix = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})`)

// Date is a calendar day with no time-of-day component. The zero value means
// "no date" and is what Parse returns for malformed input.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components. It returns the zero Date when the
// components do not name a real Gregorian day (31/02, month 13, ...).
func NewDate(year int, month time.Month, day int) Date {
	if year < 1 || month < time.January || month > time.December || day < 1 {
		return Date{}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}
	}
	return Date{t: t}
}

// FromTime truncates t to its calendar day in t's own location.
func FromTime(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// FromUnixMilli is the inverse of Date.UnixMilli.
func FromUnixMilli(ms int64) Date {
	return FromTime(time.UnixMilli(ms).UTC())
}

// Parse reads the leading DD/MM/YYYY of text. Trailing characters are ignored,
// matching how dates are scraped out of longer cell contents.
func Parse(text string) (Date, bool) {
	m := datePrefix.FindStringSubmatch(text)
	if m == nil {
		return Date{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d := NewDate(year, time.Month(month), day)
	return d, !d.IsZero()
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(text string) Date {
	d, ok := Parse(text)
	if !ok {
		panic(fmt.Sprintf("dates: invalid date literal %q", text))
	}
	return d
}

// Format renders d as DD/MM/YYYY, or InvalidDate for the zero Date.
func Format(d Date) string {
	if d.IsZero() {
		return InvalidDate
	}
	return d.t.Format(Layout)
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return Format(d) }

func (d Date) Year() int { return d.t.Year() }

func (d Date) Month() time.Month { return d.t.Month() }

func (d Date) Day() int { return d.t.Day() }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// IsWeekend reports whether d falls on a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

// UnixMilli is the day-granularity numeric timestamp stored next to demand
// records for range queries.
func (d Date) UnixMilli() int64 { return d.t.UnixMilli() }

// AddDays shifts d by n calendar days. The zero Date stays zero.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the signed number of calendar days from d to o. Both are
// UTC midnights, so whole seconds divide evenly; time.Duration would
// saturate past roughly 292 years.
func (d Date) DaysUntil(o Date) int {
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}
