package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/alexanderramin/neuron/internal/service"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newDemandCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "demand",
		Aliases: []string{"d"},
		Short:   "Manage stored demands",
	}

	cmd.AddCommand(
		newDemandPutCmd(app),
		newDemandImportCmd(app),
		newDemandGetCmd(app),
		newDemandListCmd(app),
		newDemandDeleteCmd(app),
		newDemandClearCmd(app),
		newDemandMarkCmd(app, true),
		newDemandMarkCmd(app, false),
		newDemandCompletedCmd(app),
	)

	return cmd
}

// view derives the per-demand display fields.
func (app *App) view(d *domain.Demand, completed map[string]struct{}) formatter.DemandView {
	v := formatter.DemandView{Demand: d, Relevant: app.Store.IsRelevantForNotification(d)}
	if due, ok := dates.Parse(d.Prazo); ok {
		v.Days, v.HasDays = app.Dates.DaysUntil(due)
	}
	_, v.Done = completed[d.Numero]
	return v
}

func notFound(numero string, err error) error {
	if errors.Is(err, service.ErrDemandNotFound) {
		return fmt.Errorf("demand %s not found", numero)
	}
	return err
}

func newDemandPutCmd(app *App) *cobra.Command {
	var d domain.Demand

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store or overwrite a demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Numero = strings.TrimSpace(d.Numero)
			if d.Numero == "" {
				return fmt.Errorf("--numero is required")
			}
			if d.Responsaveis == nil {
				d.Responsaveis = []string{}
			}
			d.UpdatedAt = time.Now().UTC()
			if err := app.Store.Put(cmd.Context(), &d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored demand %s\n", d.Numero)
			return nil
		},
	}

	cmd.Flags().StringVar(&d.Numero, "numero", "", "Demand number")
	cmd.Flags().StringVar(&d.Prazo, "prazo", "", "External deadline (DD/MM/YYYY)")
	cmd.Flags().StringVar(&d.DataCadastro, "cadastro", "", "Registration date (DD/MM/YYYY)")
	cmd.Flags().StringVar(&d.Situacao, "situacao", "", "Portal status text")
	cmd.Flags().StringSliceVar(&d.Responsaveis, "responsavel", nil, "Assignee (repeatable)")
	cmd.Flags().BoolVar(&d.PossivelRespondida, "respondida", false, "Flag as possibly answered")
	cmd.Flags().BoolVar(&d.PossivelObservacao, "observacao", false, "Flag as having a possible observation")
	cmd.Flags().StringVar(&d.Href, "href", "", "Link to the demand page")

	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

func newDemandImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Store a JSON array of scraped demands in one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			var records []legacy.Record
			if err := json.NewDecoder(in).Decode(&records); err != nil {
				return fmt.Errorf("decoding demands: %w", err)
			}

			now := time.Now().UTC()
			demands := make([]*domain.Demand, 0, len(records))
			for i, r := range records {
				if strings.TrimSpace(r.Numero) == "" {
					return fmt.Errorf("demand %d has no numero", i)
				}
				d := r.Demand(r.Numero)
				d.UpdatedAt = now
				demands = append(demands, d)
			}

			if err := app.Store.PutMany(cmd.Context(), demands); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d demands\n", len(demands))
			return nil
		},
	}
}

func newDemandGetCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <numero>",
		Short: "Show a demand with its derived deadlines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := app.Store.Get(ctx, args[0])
			if err != nil {
				return notFound(args[0], err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, legacy.RecordOf(d))
			}

			completed, err := app.Store.GetCompletedSet(ctx)
			if err != nil {
				return err
			}
			var plan dates.DeadlinePlan
			if due, ok := dates.Parse(d.Prazo); ok {
				plan = app.Dates.PlanDeadlines(due, app.Deadlines, d.IsExtended())
			}
			fmt.Fprint(out, formatter.FormatDemand(app.view(d, completed), plan, app.Urgency)+"\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored record as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

// dayFlag parses an optional DD/MM/YYYY flag into a day timestamp.
func dayFlag(name, value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	d, ok := dates.Parse(value)
	if !ok {
		return nil, fmt.Errorf("--%s: invalid date %q (want DD/MM/YYYY)", name, value)
	}
	ms := d.UnixMilli()
	return &ms, nil
}

func newDemandListCmd(app *App) *cobra.Command {
	var prazoFrom, prazoTo, cadastroFrom, cadastroTo string
	var f domain.DemandFilter
	var respondida, observacao, pending, relevant bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored demands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			if f.PrazoFrom, err = dayFlag("prazo-from", prazoFrom); err != nil {
				return err
			}
			if f.PrazoTo, err = dayFlag("prazo-to", prazoTo); err != nil {
				return err
			}
			if f.CadastroFrom, err = dayFlag("cadastro-from", cadastroFrom); err != nil {
				return err
			}
			if f.CadastroTo, err = dayFlag("cadastro-to", cadastroTo); err != nil {
				return err
			}
			if cmd.Flags().Changed("respondida") {
				f.PossivelRespondida = &respondida
			}
			if cmd.Flags().Changed("observacao") {
				f.PossivelObservacao = &observacao
			}

			demands, err := app.Store.List(ctx, f)
			if err != nil {
				return err
			}
			completed, err := app.Store.GetCompletedSet(ctx)
			if err != nil {
				return err
			}

			views := make([]formatter.DemandView, 0, len(demands))
			for _, d := range demands {
				v := app.view(d, completed)
				if pending && v.Done {
					continue
				}
				if relevant && (!v.Relevant || v.Done) {
					continue
				}
				views = append(views, v)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDemandList(views, app.Urgency))
			return nil
		},
	}

	cmd.Flags().StringVar(&prazoFrom, "prazo-from", "", "Deadline on or after (DD/MM/YYYY)")
	cmd.Flags().StringVar(&prazoTo, "prazo-to", "", "Deadline on or before (DD/MM/YYYY)")
	cmd.Flags().StringVar(&cadastroFrom, "cadastro-from", "", "Registered on or after (DD/MM/YYYY)")
	cmd.Flags().StringVar(&cadastroTo, "cadastro-to", "", "Registered on or before (DD/MM/YYYY)")
	cmd.Flags().StringVar(&f.SituacaoContains, "situacao", "", "Status contains text")
	cmd.Flags().StringVar(&f.Assignee, "assignee", "", "Assigned to (case-insensitive)")
	cmd.Flags().BoolVar(&respondida, "respondida", false, "Possibly answered flag")
	cmd.Flags().BoolVar(&observacao, "observacao", false, "Possible observation flag")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum number of demands")
	cmd.Flags().BoolVar(&pending, "pending", false, "Hide demands marked complete")
	cmd.Flags().BoolVar(&relevant, "relevant", false, "Only open demands that need attention")

	return cmd
}

func newDemandDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <numero>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored demand",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Delete(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted demand %s\n", args[0])
			return nil
		},
	}
}

func newDemandClearCmd(app *App) *cobra.Command {
	var completions, all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored demands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var err error
			var what string
			switch {
			case all:
				err, what = app.Store.ClearAll(ctx), "demands and completion marks"
			case completions:
				err, what = app.Store.ClearCompletions(ctx), "completion marks"
			default:
				err, what = app.Store.ClearDemands(ctx), "demands"
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", what)
			return nil
		},
	}

	cmd.Flags().BoolVar(&completions, "completions", false, "Clear completion marks instead of demands")
	cmd.Flags().BoolVar(&all, "all", false, "Clear demands and completion marks")
	cmd.MarkFlagsMutuallyExclusive("completions", "all")

	return cmd
}

func newDemandMarkCmd(app *App, done bool) *cobra.Command {
	use, short, verb := "complete <numero>", "Mark a demand as done", "Completed"
	if !done {
		use, short, verb = "reopen <numero>", "Remove the done mark", "Reopened"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.MarkComplete(cmd.Context(), args[0], done); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s demand %s\n", verb, args[0])
			return nil
		},
	}
}

func newDemandCompletedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "List demands marked done",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := app.Store.GetCompletedSet(cmd.Context())
			if err != nil {
				return err
			}
			numeros := make([]string, 0, len(set))
			for n := range set {
				numeros = append(numeros, n)
			}
			sort.Strings(numeros)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCompleted(numeros))
			return nil
		},
	}
}
