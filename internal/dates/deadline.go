package dates

import (
	"fmt"
	"strings"
)

// CalcMode selects how deadline offsets are counted.
type CalcMode string

const (
	CalcCalendar CalcMode = "calendar"
	CalcBusiness CalcMode = "business"
)

// ParseCalcMode accepts "calendar"/"business" and the portal's
// "corridos"/"diasCorridos"/"diasUteis" spellings.
func ParseCalcMode(s string) (CalcMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "calendar", "corridos", "diascorridos":
		return CalcCalendar, nil
	case "business", "uteis", "diasuteis":
		return CalcBusiness, nil
	}
	return "", fmt.Errorf("unknown deadline calculation mode %q", s)
}

// DeadlineSettings drives PlanDeadlines. Offsets are relative to the external
// deadline and are usually negative.
type DeadlineSettings struct {
	Mode               CalcMode
	InternalOffsetDays int
	ReminderOffsetDays int
	NonExtendableDays  int
	Overrides          Overrides
}

// DefaultDeadlineSettings mirrors the portal defaults.
func DefaultDeadlineSettings() DeadlineSettings {
	return DeadlineSettings{
		Mode:               CalcCalendar,
		InternalOffsetDays: -5,
		ReminderOffsetDays: -3,
		NonExtendableDays:  31,
	}
}

// DeadlinePlan is the set of derived dates shown next to a demand.
type DeadlinePlan struct {
	Base     Date
	Mode     CalcMode
	Internal Date
	Reminder Date
	// NonExtendable is zero when the demand was already extended.
	NonExtendable Date
}

// PlanDeadlines derives the internal deadline, the internal reminder and the
// last day an extension can still be requested from an external deadline.
// Every derived date goes through AdjustFinal with the settings' overrides.
// Extended demands get no NonExtendable date.
func (e *Engine) PlanDeadlines(base Date, s DeadlineSettings, extended bool) DeadlinePlan {
	plan := DeadlinePlan{Base: base, Mode: s.Mode}
	if base.IsZero() {
		return plan
	}
	offset := e.AddCalendarDays
	if s.Mode == CalcBusiness {
		offset = e.AddBusinessDays
	}
	plan.Internal = e.AdjustFinal(offset(base, s.InternalOffsetDays), s.Overrides)
	plan.Reminder = e.AdjustFinal(offset(base, s.ReminderOffsetDays), s.Overrides)
	if !extended {
		plan.NonExtendable = e.AdjustFinal(e.AddCalendarDays(base, s.NonExtendableDays), s.Overrides)
	}
	return plan
}
