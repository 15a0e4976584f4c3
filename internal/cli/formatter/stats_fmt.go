package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/neuron/internal/domain"
)

const statsProgressBarWidth = 20

// FormatStats renders the dashboard aggregate.
func FormatStats(s *domain.Statistics) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		Bold(fmt.Sprintf("%d total", s.Total)),
		StyleYellow.Render(fmt.Sprintf("%d pending", s.Pending)),
		StyleGreen.Render(fmt.Sprintf("%d completed", s.Completed)),
	))
	b.WriteString(RenderProgress(s.CompletionRate, statsProgressBarWidth) + "\n\n")

	b.WriteString(Header("Deadlines") + "\n")
	r := s.ByDeadlineRange
	b.WriteString(StyleRed.Bold(true).Render(fmt.Sprintf("%d overdue", r.Overdue)) + "  ")
	b.WriteString(StyleRed.Render(fmt.Sprintf("%d urgent", r.Urgent)) + "  ")
	b.WriteString(StyleYellow.Render(fmt.Sprintf("%d upcoming", r.Upcoming)) + "  ")
	b.WriteString(StyleGreen.Render(fmt.Sprintf("%d later", r.Normal)) + "\n")
	b.WriteString(Dim(fmt.Sprintf("%d short deadlines among pending demands", s.ShortDeadlines)) + "\n\n")

	b.WriteString(Header("Flags") + "\n")
	b.WriteString(RenderTable(
		[]string{"FLAG", "COUNT"},
		[][]string{
			{"Extended", strconv.Itoa(s.Extended)},
			{"Supplemented", strconv.Itoa(s.Supplemented)},
			{"Possibly answered", strconv.Itoa(s.PossivelRespondida)},
			{"Possible observation", strconv.Itoa(s.PossivelObservacao)},
		},
	))

	if len(s.TopAssignees) > 0 {
		b.WriteString("\n" + Header("Top assignees") + "\n")
		rows := make([][]string, 0, len(s.TopAssignees))
		for _, a := range s.TopAssignees {
			rows = append(rows, []string{a.Name, strconv.Itoa(a.Count)})
		}
		b.WriteString(RenderTable([]string{"NAME", "DEMANDS"}, rows))
	}

	return RenderBox("Demand statistics", b.String())
}
