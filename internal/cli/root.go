package cli

import (
	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/service"
	"github.com/spf13/cobra"
)

// App holds what the commands run against.
type App struct {
	Store     service.DemandStore
	Dates     *dates.Engine
	Deadlines dates.DeadlineSettings
	Urgency   formatter.Urgency

	// LegacyFile is the default source for `migrate run`.
	LegacyFile string
	// Plain disables color; set when stdout is not a terminal.
	Plain bool
}

// NewRootCmd creates the top-level "neuron" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "neuron",
		Short:         "Deadline tracking for portal demands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			formatter.SetPlain(app.Plain)
			if app.Dates != nil {
				return app.Dates.Wait(cmd.Context())
			}
			return nil
		},
	}

	root.AddCommand(
		newDateCmd(app),
		newDeadlineCmd(app),
		newDemandCmd(app),
		newStatsCmd(app),
		newNotifyCmd(app),
		newMigrateCmd(app),
		newExportCmd(app),
	)

	return root
}
