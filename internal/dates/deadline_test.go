package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDeadlines_CalendarMode(t *testing.T) {
	e, _ := newTestEngine(t, NewRules(WeekendForward, HolidayNextDay, nil))
	// 10/11/2026 is a Tuesday.
	plan := e.PlanDeadlines(MustParse("10/11/2026"), DefaultDeadlineSettings(), false)

	assert.Equal(t, CalcCalendar, plan.Mode)
	// 05/11 is a Thursday, 07/11 a Saturday moved to Monday 09/11.
	assert.Equal(t, "05/11/2026", Format(plan.Internal))
	assert.Equal(t, "09/11/2026", Format(plan.Reminder))
	// +31 days is Friday 11/12.
	assert.Equal(t, "11/12/2026", Format(plan.NonExtendable))
}

func TestPlanDeadlines_BusinessModeWithOverrides(t *testing.T) {
	e, _ := newTestEngine(t, NewRules(WeekendForward, HolidayNextDay, holidays("02/11/2026")))
	s := DeadlineSettings{
		Mode:               CalcBusiness,
		InternalOffsetDays: -6,
		ReminderOffsetDays: -2,
		NonExtendableDays:  31,
		Overrides:          Overrides{Weekend: WeekendSaturdayBack},
	}
	plan := e.PlanDeadlines(MustParse("10/11/2026"), s, false)

	// Six business days back from Tue 10/11 skipping the weekend and 02/11.
	assert.Equal(t, "30/10/2026", Format(plan.Internal))
	assert.Equal(t, "06/11/2026", Format(plan.Reminder))
	assert.Equal(t, "11/12/2026", Format(plan.NonExtendable))
}

func TestPlanDeadlines_ExtendedHasNoNonExtendableDate(t *testing.T) {
	e, _ := newTestEngine(t, DefaultRules())
	plan := e.PlanDeadlines(MustParse("10/11/2026"), DefaultDeadlineSettings(), true)
	assert.True(t, plan.NonExtendable.IsZero())
	assert.False(t, plan.Internal.IsZero())
}

func TestPlanDeadlines_ZeroBase(t *testing.T) {
	e, _ := newTestEngine(t, DefaultRules())
	plan := e.PlanDeadlines(Date{}, DefaultDeadlineSettings(), false)
	assert.True(t, plan.Internal.IsZero())
	assert.True(t, plan.Reminder.IsZero())
	assert.True(t, plan.NonExtendable.IsZero())
}

func TestParseCalcMode(t *testing.T) {
	for in, want := range map[string]CalcMode{
		"":          CalcCalendar,
		"corridos":  CalcCalendar,
		"diasUteis": CalcBusiness,
		"business":  CalcBusiness,
	} {
		got, err := ParseCalcMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCalcMode("lunar")
	assert.Error(t, err)
}
