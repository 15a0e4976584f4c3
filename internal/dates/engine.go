package dates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxHolidaySteps bounds the holiday walk in AdjustFinal.
	maxHolidaySteps = 30
	// maxBusinessDays is the largest |n| AddBusinessDays honors.
	maxBusinessDays = 365
	// maxBusinessSteps is the absolute ceiling on day steps in AddBusinessDays.
	maxBusinessSteps = 1000
	slowWalkEvery    = 100
)

// Engine performs business-date arithmetic against a rule set loaded once at
// startup. Call Init (or Wait after a concurrent Init) before relying on the
// loaded rules; until then every operation runs on DefaultRules.
type Engine struct {
	source RulesSource
	logger zerolog.Logger
	now    func() time.Time

	once  sync.Once
	ready chan struct{}
	rules *Rules
	// degraded is set when the rules came from defaults rather than the source.
	degraded bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for cap warnings and load diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now for "today" computations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an uninitialized engine. A nil source means defaults.
func NewEngine(source RulesSource, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: zerolog.Nop(),
		now:    time.Now,
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewReadyEngine returns an engine already initialized with rules.
func NewReadyEngine(rules *Rules, opts ...Option) *Engine {
	e := NewEngine(StaticRules{Rules: rules}, opts...)
	e.Init(context.Background())
	return e
}

// Init loads the rules exactly once. Concurrent callers block until the first
// load finishes. It never fails: an unavailable or broken source leaves the
// engine on DefaultRules.
func (e *Engine) Init(ctx context.Context) {
	e.once.Do(func() {
		defer close(e.ready)
		rules, err := e.load(ctx)
		if err != nil {
			if errors.Is(err, ErrRulesUnavailable) {
				e.logger.Warn().Msg("business rules not configured, using defaults")
			} else {
				e.logger.Error().Err(err).Msg("loading business rules failed, using defaults")
			}
			e.rules = DefaultRules()
			e.degraded = true
			return
		}
		e.rules = rules
		e.logger.Info().
			Str("weekend", string(rules.Weekend)).
			Str("holiday", string(rules.Holiday)).
			Int("holidays", rules.HolidayCount()).
			Msg("business rules loaded")
	})
}

func (e *Engine) load(ctx context.Context) (rules *Rules, err error) {
	if e.source == nil {
		return nil, ErrRulesUnavailable
	}
	defer func() {
		if p := recover(); p != nil {
			rules, err = nil, fmt.Errorf("rules source panicked: %v", p)
		}
	}()
	rules, err = e.source.LoadRules(ctx)
	if err == nil && rules == nil {
		err = ErrRulesUnavailable
	}
	return rules, err
}

// Start runs Init in the background. Pair it with Ready or Wait.
func (e *Engine) Start(ctx context.Context) {
	go e.Init(ctx)
}

// Ready is closed once Init has finished.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Wait blocks until Init has finished or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	select {
	case <-e.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Degraded reports whether the engine fell back to DefaultRules.
func (e *Engine) Degraded() bool {
	if !e.isReady() {
		return true
	}
	return e.degraded
}

func (e *Engine) isReady() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// Rules returns the active rule set. Callers must not mutate it.
func (e *Engine) Rules() *Rules {
	if !e.isReady() {
		return DefaultRules()
	}
	return e.rules
}

// Today is the current calendar day according to the engine clock.
func (e *Engine) Today() Date {
	return FromTime(e.now())
}

// IsHoliday reports whether d is a configured holiday.
func (e *Engine) IsHoliday(d Date) bool {
	return e.Rules().IsHoliday(d)
}

// IsBusinessDay reports whether d is Monday-Friday and not a holiday.
func (e *Engine) IsBusinessDay(d Date) bool {
	return !d.IsZero() && !d.IsWeekend() && !e.IsHoliday(d)
}

// AdjustFinal moves d off the weekend and then off holidays. The holiday walk
// is capped; when the cap is hit the possibly-still-holiday result is returned.
func (e *Engine) AdjustFinal(d Date, o Overrides) Date {
	if d.IsZero() {
		return d
	}
	rules := e.Rules()
	weekend := o.weekend(rules)
	holiday := o.holiday(rules)

	adjusted := d
	switch adjusted.Weekday() {
	case time.Saturday:
		if weekend == WeekendSaturdayBack || weekend == WeekendNearest {
			adjusted = adjusted.AddDays(-1)
		} else {
			adjusted = adjusted.AddDays(2)
		}
	case time.Sunday:
		if weekend == WeekendForward || weekend == WeekendNearest {
			adjusted = adjusted.AddDays(1)
		} else {
			adjusted = adjusted.AddDays(-2)
		}
	}

	if holiday == HolidayNone {
		return adjusted
	}
	step := 1
	if holiday == HolidayPrevDay {
		step = -1
	}
	steps := 0
	for rules.IsHoliday(adjusted) && steps < maxHolidaySteps {
		adjusted = adjusted.AddDays(step)
		steps++
	}
	if rules.IsHoliday(adjusted) {
		e.logger.Warn().
			Str("date", Format(d)).
			Str("result", Format(adjusted)).
			Int("steps", steps).
			Msg("holiday adjustment limit reached, returning partial adjustment")
	}
	return adjusted
}

// AddCalendarDays offsets d by n calendar days; n may be negative.
func (e *Engine) AddCalendarDays(d Date, n int) Date {
	return d.AddDays(n)
}

// AddBusinessDays walks from d in the direction of n, counting only business
// days, until |n| have been counted. |n| is clamped to 365 and the walk is
// capped at min(|n|*10, 1000) steps; a capped walk returns where it stopped.
func (e *Engine) AddBusinessDays(d Date, n int) Date {
	if d.IsZero() || n == 0 {
		return d
	}
	dir := 1
	if n < 0 {
		dir = -1
	}
	want := n * dir
	if want > maxBusinessDays {
		e.logger.Warn().
			Int("requested", n).
			Int("limit", maxBusinessDays).
			Msg("business day offset clamped")
		want = maxBusinessDays
	}
	limit := min(want*10, maxBusinessSteps)

	rules := e.Rules()
	cur := d
	counted, steps := 0, 0
	for counted < want && steps < limit {
		cur = cur.AddDays(dir)
		steps++
		if !cur.IsWeekend() && !rules.IsHoliday(cur) {
			counted++
		}
		if steps%slowWalkEvery == 0 {
			e.logger.Debug().Int("steps", steps).Int("counted", counted).Msg("slow business day walk")
		}
	}
	if counted < want {
		e.logger.Error().
			Str("start", Format(d)).
			Int("requested", n).
			Int("counted", counted).
			Int("steps", steps).
			Msg("business day walk limit reached, returning partial result")
	}
	return cur
}

// DaysUntil returns the signed calendar-day distance from today to d.
func (e *Engine) DaysUntil(d Date) (int, bool) {
	if d.IsZero() {
		return 0, false
	}
	return e.Today().DaysUntil(d), true
}

// DaysRemaining renders the distance from today to d as a short label.
func (e *Engine) DaysRemaining(d Date) string {
	n, ok := e.DaysUntil(d)
	if !ok {
		return ""
	}
	return RemainingLabel(n)
}

// DaysRemainingText is DaysRemaining over a DD/MM/YYYY string. Unparseable
// input yields an empty label.
func (e *Engine) DaysRemainingText(s string) string {
	d, ok := Parse(s)
	if !ok {
		return ""
	}
	return e.DaysRemaining(d)
}

// RemainingLabel formats a signed day count.
func RemainingLabel(n int) string {
	switch {
	case n == 0:
		return "(Today)"
	case n == 1:
		return "(Tomorrow)"
	case n == -1:
		return "(Yesterday)"
	case n > 1:
		return fmt.Sprintf("(in %d days)", n)
	default:
		return fmt.Sprintf("(%d days ago)", -n)
	}
}
