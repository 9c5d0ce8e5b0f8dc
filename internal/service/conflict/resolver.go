package conflict

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// Resolver решает, можно ли поставить запись на время профессионала
type Resolver struct {
	schedule ScheduleReader
}

// NewResolver создает резолвер поверх индекса агенды
func NewResolver(schedule ScheduleReader) *Resolver {
	return &Resolver{schedule: schedule}
}

// Resolve проверяет кандидата против агенды профессионала.
// allowOverbooking: политика компании, ее загружает вызывающая сторона
func (r *Resolver) Resolve(companyID string, c Candidate, allowOverbooking bool) Decision {
	conflicts := r.Conflicts(companyID, c)
	if len(conflicts) == 0 {
		return Decision{Outcome: OutcomeAccepted}
	}

	decision := Decision{
		Outcome:   OutcomeRejected,
		Conflict:  conflicts[0],
		Conflicts: conflicts,
	}
	if allowOverbooking {
		decision.Outcome = OutcomeRequiresDecision
	}
	return decision
}

// Conflicts возвращает все пересекающиеся записи, раньше начавшиеся первыми
func (r *Resolver) Conflicts(companyID string, c Candidate) []*domain.Appointment {
	excluded := make(map[string]struct{}, len(c.ExcludeIDs))
	for _, id := range c.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	var conflicts []*domain.Appointment

	// Запись могла начаться накануне и перейти через полночь
	for _, day := range []time.Time{c.Start.Add(-24 * time.Hour), c.Start, c.End} {
		view := r.schedule.AppointmentsFor(companyID, c.ProfessionalID, day)
		for _, a := range view.Scheduled {
			if _, ok := excluded[a.ID]; ok {
				continue
			}
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}

			if !a.OccupiesGrid() {
				continue
			}
			if domain.Overlaps(c.Start, c.End, *a.StartAt, *a.EndAt) {
				conflicts = append(conflicts, a)
			}
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		si, sj := *conflicts[i].StartAt, *conflicts[j].StartAt
		if si.Equal(sj) {
			return conflicts[i].ID < conflicts[j].ID
		}
		return si.Before(sj)
	})
	return conflicts
}
