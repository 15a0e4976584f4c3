package cli

import (
	"fmt"

	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Dashboard statistics over stored demands",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Store.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStats(stats)+"\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the dashboard JSON")
	return cmd
}

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification badge",
	}
	cmd.AddCommand(newNotifyCountCmd(app))
	return cmd
}

func newNotifyCountCmd(app *App) *cobra.Command {
	var user string
	var allUsers bool

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Open demands that need attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Store.NotificationCount(cmd.Context(), user, !allUsers)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Count only demands assigned to this user")
	cmd.Flags().BoolVar(&allUsers, "all-users", false, "Ignore --user and count every demand")
	return cmd
}
