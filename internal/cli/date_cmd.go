package cli

import (
	"fmt"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/spf13/cobra"
)

func parseDateArg(s string) (dates.Date, error) {
	d, ok := dates.Parse(s)
	if !ok {
		return dates.Date{}, fmt.Errorf("invalid date %q (want DD/MM/YYYY)", s)
	}
	return d, nil
}

// overrideFlags registers --weekend/--holiday and resolves them into
// per-call overrides.
type overrideFlags struct {
	weekend string
	holiday string
}

func (o *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.weekend, "weekend", "", "Weekend rule: next, saturday-back, both (or modo1..modo3)")
	cmd.Flags().StringVar(&o.holiday, "holiday", "", "Holiday rule: next-day, previous-day, none")
}

func (o *overrideFlags) resolve() (dates.Overrides, error) {
	var ov dates.Overrides
	if o.weekend != "" {
		m, err := dates.ParseWeekendMode(o.weekend)
		if err != nil {
			return ov, err
		}
		ov.Weekend = m
	}
	if o.holiday != "" {
		m, err := dates.ParseHolidayMode(o.holiday)
		if err != nil {
			return ov, err
		}
		ov.Holiday = m
	}
	return ov, nil
}

func newDateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "date",
		Short: "Business-date arithmetic",
	}

	cmd.AddCommand(
		newDateParseCmd(app),
		newDateAdjustCmd(app),
		newDateAddCmd(app, false),
		newDateAddCmd(app, true),
		newDateRemainingCmd(app),
		newDateHolidayCmd(app),
	)

	return cmd
}

func newDateParseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Read a DD/MM/YYYY date from the start of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", dates.Format(d), d.Weekday())
			if name, ok := app.Dates.Rules().HolidayName(d); ok {
				fmt.Fprintf(out, "holiday: %s\n", name)
			}
			return nil
		},
	}
}

func newDateAdjustCmd(app *App) *cobra.Command {
	var ov overrideFlags

	cmd := &cobra.Command{
		Use:   "adjust <date>",
		Short: "Move a date off weekends and holidays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			overrides, err := ov.resolve()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dates.Format(app.Dates.AdjustFinal(d, overrides)))
			return nil
		},
	}

	ov.register(cmd)
	return cmd
}

func newDateAddCmd(app *App, business bool) *cobra.Command {
	var days int

	use, short := "add <date>", "Add calendar days"
	if business {
		use, short = "business <date>", "Add business days, skipping weekends and holidays"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			var got dates.Date
			if business {
				got = app.Dates.AddBusinessDays(d, days)
			} else {
				got = app.Dates.AddCalendarDays(d, days)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dates.Format(got))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days to add (negative counts back)")
	_ = cmd.MarkFlagRequired("days")
	return cmd
}

func newDateRemainingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remaining <date>",
		Short: "Days from today until date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := app.Dates.DaysRemainingText(args[0])
			if label == "" {
				return fmt.Errorf("invalid date %q (want DD/MM/YYYY)", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
}

func newDateHolidayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "holiday <date>",
		Short: "Report whether date is a holiday or business day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateArg(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch name, ok := app.Dates.Rules().HolidayName(d); {
			case ok:
				fmt.Fprintf(out, "%s is a holiday: %s\n", dates.Format(d), name)
			case app.Dates.IsBusinessDay(d):
				fmt.Fprintf(out, "%s is a business day\n", dates.Format(d))
			default:
				fmt.Fprintf(out, "%s is a weekend day\n", dates.Format(d))
			}
			return nil
		},
	}
}
