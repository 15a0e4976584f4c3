package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/gookit/validate"
	"github.com/spf13/viper"
)

type HolidayEntry struct {
	Date        string `mapstructure:"date"`
	Description string `mapstructure:"description"`
}

type DeadlineEntry struct {
	CalcMode           string `mapstructure:"calcMode"`
	InternalOffsetDays int    `mapstructure:"internalOffsetDays"`
	ReminderOffsetDays int    `mapstructure:"reminderOffsetDays"`
	NonExtendableDays  int    `mapstructure:"nonExtendableDays" validate:"required|min:1"`
}

// RulesFile is the user-editable business rules document, JSON or YAML by
// extension. Key names match the extension's options page.
type RulesFile struct {
	WeekendAdjustmentMode string         `mapstructure:"weekendAdjustmentMode"`
	HolidayAdjustmentMode string         `mapstructure:"holidayAdjustmentMode"`
	Holidays              []HolidayEntry `mapstructure:"holidays"`
	Deadlines             DeadlineEntry  `mapstructure:"deadlines"`
}

// ReadRulesFile parses path. A missing file reports dates.ErrRulesUnavailable.
func ReadRulesFile(path string) (*RulesFile, error) {
	if path == "" {
		return nil, dates.ErrRulesUnavailable
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("rules file %s: %w", path, dates.ErrRulesUnavailable)
		}
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}

	v := viper.New()
	defaults := dates.DefaultDeadlineSettings()
	v.SetDefault("weekendAdjustmentMode", string(dates.WeekendForward))
	v.SetDefault("holidayAdjustmentMode", string(dates.HolidayNextDay))
	v.SetDefault("deadlines.calcMode", string(defaults.Mode))
	v.SetDefault("deadlines.internalOffsetDays", defaults.InternalOffsetDays)
	v.SetDefault("deadlines.reminderOffsetDays", defaults.ReminderOffsetDays)
	v.SetDefault("deadlines.nonExtendableDays", defaults.NonExtendableDays)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var rf RulesFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("decoding rules file %s: %w", path, err)
	}
	vd := validate.Struct(&rf.Deadlines)
	if !vd.Validate() {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, vd.Errors)
	}
	return &rf, nil
}

// Rules converts the file to an engine rule set. Any bad mode or holiday
// date fails the whole conversion.
func (rf *RulesFile) Rules() (*dates.Rules, error) {
	weekend, err := dates.ParseWeekendMode(rf.WeekendAdjustmentMode)
	if err != nil {
		return nil, err
	}
	holiday, err := dates.ParseHolidayMode(rf.HolidayAdjustmentMode)
	if err != nil {
		return nil, err
	}
	holidays := make([]dates.Holiday, 0, len(rf.Holidays))
	for i, h := range rf.Holidays {
		d, ok := dates.Parse(h.Date)
		if !ok {
			return nil, fmt.Errorf("holiday %d: invalid date %q", i, h.Date)
		}
		holidays = append(holidays, dates.Holiday{Date: d, Description: h.Description})
	}
	return dates.NewRules(weekend, holiday, holidays), nil
}

// DeadlineSettings converts the deadlines section.
func (rf *RulesFile) DeadlineSettings() (dates.DeadlineSettings, error) {
	mode, err := dates.ParseCalcMode(rf.Deadlines.CalcMode)
	if err != nil {
		return dates.DeadlineSettings{}, err
	}
	return dates.DeadlineSettings{
		Mode:               mode,
		InternalOffsetDays: rf.Deadlines.InternalOffsetDays,
		ReminderOffsetDays: rf.Deadlines.ReminderOffsetDays,
		NonExtendableDays:  rf.Deadlines.NonExtendableDays,
	}, nil
}

// RulesLoader is the engine's RulesSource backed by a rules file.
type RulesLoader struct {
	Path string
}

func (l RulesLoader) LoadRules(ctx context.Context) (*dates.Rules, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rf, err := ReadRulesFile(l.Path)
	if err != nil {
		return nil, err
	}
	return rf.Rules()
}

// LoadDeadlineSettings reads the deadlines section of path, falling back to
// the defaults when there is no rules file.
func LoadDeadlineSettings(path string) (dates.DeadlineSettings, error) {
	rf, err := ReadRulesFile(path)
	if err != nil {
		if errors.Is(err, dates.ErrRulesUnavailable) {
			return dates.DefaultDeadlineSettings(), nil
		}
		return dates.DeadlineSettings{}, err
	}
	return rf.DeadlineSettings()
}
