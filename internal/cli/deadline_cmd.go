package cli

import (
	"fmt"

	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/spf13/cobra"
)

func newDeadlineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadline",
		Short: "Derive internal deadlines",
	}
	cmd.AddCommand(newDeadlinePlanCmd(app))
	return cmd
}

func newDeadlinePlanCmd(app *App) *cobra.Command {
	var situacao, mode string
	var internal, reminder, nonExtendable int
	var ov overrideFlags

	cmd := &cobra.Command{
		Use:   "plan <DD/MM/YYYY>",
		Short: "Internal deadline, reminder and last extension day for an external deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := parseDateArg(args[0])
			if err != nil {
				return err
			}

			settings := app.Deadlines
			if mode != "" {
				m, err := dates.ParseCalcMode(mode)
				if err != nil {
					return err
				}
				settings.Mode = m
			}
			if cmd.Flags().Changed("internal") {
				settings.InternalOffsetDays = internal
			}
			if cmd.Flags().Changed("reminder") {
				settings.ReminderOffsetDays = reminder
			}
			if cmd.Flags().Changed("non-extendable") {
				if nonExtendable < 1 {
					return fmt.Errorf("--non-extendable must be at least 1")
				}
				settings.NonExtendableDays = nonExtendable
			}
			if settings.Overrides, err = ov.resolve(); err != nil {
				return err
			}

			extended := (&domain.Demand{Situacao: situacao}).IsExtended()
			plan := app.Dates.PlanDeadlines(base, settings, extended)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDeadlinePlan(plan)+"\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&situacao, "situacao", "", "Demand status; an extended demand has no non-extendable date")
	cmd.Flags().StringVar(&mode, "mode", "", "Offset counting: calendar or business")
	cmd.Flags().IntVar(&internal, "internal", 0, "Internal deadline offset in days")
	cmd.Flags().IntVar(&reminder, "reminder", 0, "Internal reminder offset in days")
	cmd.Flags().IntVar(&nonExtendable, "non-extendable", 0, "Days after the deadline an extension can still be asked")
	ov.register(cmd)

	return cmd
}
