package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
)

const situacaoWidth = 32

// DemandView is a demand with what the CLI derived for it.
type DemandView struct {
	Demand   *domain.Demand
	Days     int
	HasDays  bool
	Done     bool
	Relevant bool
}

func flags(v DemandView) string {
	var parts []string
	if v.Demand.IsExtended() {
		parts = append(parts, StylePurple.Render("EXT"))
	}
	if v.Demand.IsSupplemented() {
		parts = append(parts, StyleBlue.Render("SUP"))
	}
	if v.Demand.PossivelRespondida {
		parts = append(parts, StyleGreen.Render("RESP"))
	}
	if v.Demand.PossivelObservacao {
		parts = append(parts, StyleYellow.Render("OBS"))
	}
	return strings.Join(parts, " ")
}

func doneMark(done bool) string {
	if done {
		return StyleGreen.Render("✔")
	}
	return ""
}

// FormatDemandList renders demands as a table with a count footer.
func FormatDemandList(views []DemandView, u Urgency) string {
	if len(views) == 0 {
		return Dim("No demands stored.") + "\n"
	}

	headers := []string{"NUMERO", "PRAZO", "REMAINING", "SITUACAO", "RESPONSAVEIS", "FLAGS", "DONE"}
	rows := make([][]string, 0, len(views))
	relevant := 0
	for _, v := range views {
		d := v.Demand
		numero := d.Numero
		if v.Relevant && !v.Done {
			numero = Bold(numero)
			relevant++
		}
		rows = append(rows, []string{
			numero,
			d.Prazo,
			Remaining(v.Days, v.HasDays, u),
			Truncate(d.Situacao, situacaoWidth),
			Names(d.Responsaveis),
			flags(v),
			doneMark(v.Done),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("%d demands, %d need attention", len(views), relevant)))
	b.WriteString("\n")
	return b.String()
}

// FormatDemand renders one demand with its derived deadlines.
func FormatDemand(v DemandView, plan dates.DeadlinePlan, u Urgency) string {
	d := v.Demand
	var b strings.Builder

	b.WriteString(kv("Prazo", d.Prazo+" "+Remaining(v.Days, v.HasDays, u)) + "\n")
	b.WriteString(kv("Cadastro", d.DataCadastro) + "\n")
	b.WriteString(kv("Situacao", d.Situacao) + "\n")
	b.WriteString(kv("Responsaveis", Names(d.Responsaveis)) + "\n")
	if f := flags(v); f != "" {
		b.WriteString(kv("Flags", f) + "\n")
	}
	if d.Href != "" {
		b.WriteString(kv("Link", d.Href) + "\n")
	}
	status := StyleYellow.Render("open")
	if v.Done {
		status = StyleGreen.Render("✔ completed")
	}
	b.WriteString(kv("Status", status) + "\n")

	if !plan.Base.IsZero() {
		b.WriteString("\n")
		b.WriteString(formatPlanLines(plan))
	}

	return RenderBox("Demand "+d.Numero, b.String())
}

// FormatCompleted lists completion marks.
func FormatCompleted(numeros []string) string {
	if len(numeros) == 0 {
		return Dim("No demands marked complete.") + "\n"
	}
	var b strings.Builder
	for _, n := range numeros {
		b.WriteString(StyleGreen.Render("✔") + " " + n + "\n")
	}
	return b.String()
}
