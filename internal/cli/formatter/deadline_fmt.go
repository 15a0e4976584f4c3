package formatter

import (
	"strings"

	"github.com/alexanderramin/neuron/internal/dates"
)

func formatPlanLines(plan dates.DeadlinePlan) string {
	var b strings.Builder
	b.WriteString(kv("Internal deadline", DateOrDash(plan.Internal)) + "\n")
	b.WriteString(kv("Internal reminder", DateOrDash(plan.Reminder)) + "\n")
	nonExt := DateOrDash(plan.NonExtendable)
	if plan.NonExtendable.IsZero() {
		nonExt = Dim("-- (already extended)")
	}
	b.WriteString(kv("Non-extendable", nonExt) + "\n")
	return b.String()
}

// FormatDeadlinePlan renders the dates derived from an external deadline.
func FormatDeadlinePlan(plan dates.DeadlinePlan) string {
	var b strings.Builder
	b.WriteString(kv("External deadline", DateOrDash(plan.Base)) + "\n")
	b.WriteString(kv("Counting", string(plan.Mode)) + "\n\n")
	b.WriteString(formatPlanLines(plan))
	return RenderBox("Deadlines", b.String())
}
