package dates

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// WeekendMode controls where a date landing on Saturday or Sunday is moved.
type WeekendMode string

const (
	// WeekendForward moves both weekend days to the following Monday.
	WeekendForward WeekendMode = "next"
	// WeekendSaturdayBack moves both weekend days to the preceding Friday.
	WeekendSaturdayBack WeekendMode = "saturday-back"
	// WeekendNearest moves Saturday back to Friday and Sunday on to Monday.
	WeekendNearest WeekendMode = "both"
)

// HolidayMode controls how a date landing on a holiday is stepped.
type HolidayMode string

const (
	HolidayNone    HolidayMode = "none"
	HolidayNextDay HolidayMode = "next-day"
	HolidayPrevDay HolidayMode = "previous-day"
)

var weekendAliases = map[string]WeekendMode{
	"next":           WeekendForward,
	"sunday-forward": WeekendForward,
	"modo2":          WeekendForward,
	"saturday-back":  WeekendSaturdayBack,
	"modo1":          WeekendSaturdayBack,
	"both":           WeekendNearest,
	"modo3":          WeekendNearest,
}

var holidayAliases = map[string]HolidayMode{
	"none":         HolidayNone,
	"next-day":     HolidayNextDay,
	"proximo_dia":  HolidayNextDay,
	"previous-day": HolidayPrevDay,
	"dia_anterior": HolidayPrevDay,
}

// ParseWeekendMode accepts the canonical names and the portal's legacy
// "modoN" values.
func ParseWeekendMode(s string) (WeekendMode, error) {
	if m, ok := weekendAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown weekend adjustment mode %q", s)
}

// ParseHolidayMode accepts the canonical names and the portal's legacy values.
func ParseHolidayMode(s string) (HolidayMode, error) {
	if m, ok := holidayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown holiday adjustment mode %q", s)
}

// Holiday is one configured non-working day.
type Holiday struct {
	Date        Date
	Description string
}

// Rules is the business-date configuration. It is loaded once and never
// mutated afterwards; per-call changes go through Overrides.
type Rules struct {
	Weekend  WeekendMode
	Holiday  HolidayMode
	holidays map[Date]string
}

// NewRules builds a rule set. Zero holiday dates are dropped.
func NewRules(weekend WeekendMode, holiday HolidayMode, holidays []Holiday) *Rules {
	r := &Rules{Weekend: weekend, Holiday: holiday, holidays: make(map[Date]string, len(holidays))}
	for _, h := range holidays {
		if h.Date.IsZero() {
			continue
		}
		r.holidays[h.Date] = h.Description
	}
	return r
}

// DefaultRules is what the engine runs on when no configuration can be read.
func DefaultRules() *Rules {
	return NewRules(WeekendForward, HolidayNextDay, nil)
}

// IsHoliday reports whether d is in the holiday set.
func (r *Rules) IsHoliday(d Date) bool {
	_, ok := r.holidays[d]
	return ok
}

// HolidayName returns the configured description of d, if it is a holiday.
func (r *Rules) HolidayName(d Date) (string, bool) {
	name, ok := r.holidays[d]
	return name, ok
}

// HolidayCount is the number of distinct holiday dates.
func (r *Rules) HolidayCount() int { return len(r.holidays) }

// Overrides substitutes rule modes for a single call. Empty fields fall back
// to the loaded rules.
type Overrides struct {
	Weekend WeekendMode
	Holiday HolidayMode
}

func (o Overrides) weekend(r *Rules) WeekendMode {
	if o.Weekend != "" {
		return o.Weekend
	}
	return r.Weekend
}

func (o Overrides) holiday(r *Rules) HolidayMode {
	if o.Holiday != "" {
		return o.Holiday
	}
	return r.Holiday
}

// ErrRulesUnavailable is returned by a RulesSource that has nothing to load.
var ErrRulesUnavailable = errors.New("business rules unavailable")

// RulesSource supplies the rule set at engine start.
type RulesSource interface {
	LoadRules(ctx context.Context) (*Rules, error)
}

// StaticRules is a RulesSource that always returns the same rules.
type StaticRules struct {
	Rules *Rules
}

func (s StaticRules) LoadRules(context.Context) (*Rules, error) {
	if s.Rules == nil {
		return nil, ErrRulesUnavailable
	}
	return s.Rules, nil
}
