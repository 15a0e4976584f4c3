package service

import (
	"math"
	"sort"
	"strings"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
)

const topAssigneeCount = 10

// Thresholds are the day boundaries for deadline buckets.
type Thresholds struct {
	// Demands due in 0..ShortDeadlineDays days are urgent and relevant.
	ShortDeadlineDays int
	// Demands due after ShortDeadlineDays up to UpcomingDays are upcoming.
	UpcomingDays int
}

func DefaultThresholds() Thresholds {
	return Thresholds{ShortDeadlineDays: 2, UpcomingDays: 7}
}

// daysRemaining counts calendar days from today to the demand's deadline.
// ok is false when the demand has no parseable deadline.
func daysRemaining(d *domain.Demand, today dates.Date) (int, bool) {
	if d.PrazoTimestamp != nil {
		return today.DaysUntil(dates.FromUnixMilli(*d.PrazoTimestamp)), true
	}
	due, ok := dates.Parse(d.Prazo)
	if !ok {
		return 0, false
	}
	return today.DaysUntil(due), true
}

// isRelevant is the notification filter shared by stats and the badge count.
func isRelevant(d *domain.Demand, today dates.Date, th Thresholds) bool {
	if d == nil {
		return false
	}
	if n, ok := daysRemaining(d, today); ok && n <= th.ShortDeadlineDays {
		return true
	}
	return d.IsExtended() || d.IsSupplemented() || d.PossivelRespondida || d.PossivelObservacao
}

// computeStats aggregates demands in one pass. demands must be in a stable
// order; assignee ties keep their first-seen order. Only marks naming a
// stored demand count as completed.
func computeStats(demands []*domain.Demand, completed map[string]struct{}, today dates.Date, th Thresholds) *domain.Statistics {
	s := &domain.Statistics{
		Total:        len(demands),
		ByAssignee:   map[string]int{},
		TopAssignees: []domain.AssigneeCount{},
	}
	var order []string

	for _, d := range demands {
		if _, ok := completed[d.Numero]; ok {
			s.Completed++
		}

		if n, ok := daysRemaining(d, today); ok {
			switch {
			case n < 0:
				s.Overdue++
				s.ByDeadlineRange.Overdue++
			case n <= th.ShortDeadlineDays:
				s.ShortDeadlines++
				s.ByDeadlineRange.Urgent++
			case n <= th.UpcomingDays:
				s.ByDeadlineRange.Upcoming++
			default:
				s.ByDeadlineRange.Normal++
			}
		}

		if d.IsExtended() {
			s.Extended++
		}
		if d.IsSupplemented() {
			s.Supplemented++
		}
		if d.PossivelRespondida {
			s.PossivelRespondida++
		}
		if d.PossivelObservacao {
			s.PossivelObservacao++
		}

		for _, r := range d.Responsaveis {
			name := strings.TrimSpace(r)
			if name == "" {
				continue
			}
			if _, seen := s.ByAssignee[name]; !seen {
				order = append(order, name)
			}
			s.ByAssignee[name]++
		}
	}

	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}

	ranked := make([]domain.AssigneeCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, domain.AssigneeCount{Name: name, Count: s.ByAssignee[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topAssigneeCount {
		ranked = ranked[:topAssigneeCount]
	}
	s.TopAssignees = ranked
	return s
}
