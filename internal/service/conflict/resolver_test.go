package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
)

const company = "company-1"

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
}

func appointment(id, professionalID string, start time.Time, services ...domain.Service) *domain.Appointment {
	a := &domain.Appointment{
		ID:             id,
		CompanyID:      company,
		ProfessionalID: professionalID,
		Services:       services,
		Status:         domain.StatusScheduled,
	}
	a.Reschedule(&start)
	return a
}

// 10:00–10:30, услуга 20 минут + 10 минут буфер
func existingAt10(idx *schedule.Index) *domain.Appointment {
	clientName := "Maria"
	a := appointment("apt-10", "pro-a", at(10, 0), domain.Service{ID: "cut", Name: "Corte", DurationMinutes: 20, BufferAfterMinutes: 10})
	a.ClientName = &clientName
	idx.Upsert(company, a)
	return a
}

func candidateAt1015() Candidate {
	start := at(10, 15)
	return Candidate{
		ProfessionalID: "pro-a",
		Start:          start,
		End:            domain.EndFor(start, []domain.Service{{DurationMinutes: 25, BufferAfterMinutes: 5}}),
		ExcludeIDs:     []string{"apt-new"},
	}
}

func TestResolve_RejectsWithConflictingAppointment(t *testing.T) {
	idx := schedule.NewIndex(time.UTC)
	existingAt10(idx)

	decision := NewResolver(idx).Resolve(company, candidateAt1015(), false)

	assert.Equal(t, OutcomeRejected, decision.Outcome)
	require.NotNil(t, decision.Conflict)
	assert.Equal(t, "apt-10", decision.Conflict.ID)
	assert.Equal(t, "Maria", *decision.Conflict.ClientName)
	assert.Equal(t, []string{"Corte"}, decision.Conflict.ServiceNames())
}

func TestResolve_RequiresDecisionWhenOverbookingAllowed(t *testing.T) {
	idx := schedule.NewIndex(time.UTC)
	existingAt10(idx)

	decision := NewResolver(idx).Resolve(company, candidateAt1015(), true)

	assert.Equal(t, OutcomeRequiresDecision, decision.Outcome)
	assert.Equal(t, "apt-10", decision.Conflict.ID)
	assert.True(t, decision.HasConflict())
}

func TestResolve_Accepts(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
	}{
		{
			name:      "back to back",
			candidate: Candidate{ProfessionalID: "pro-a", Start: at(10, 30), End: at(11, 0)},
		},
		{
			name:      "other professional",
			candidate: Candidate{ProfessionalID: "pro-b", Start: at(10, 15), End: at(10, 45)},
		},
		{
			name:      "moving itself",
			candidate: Candidate{ProfessionalID: "pro-a", Start: at(10, 15), End: at(10, 45), ExcludeIDs: []string{"apt-10"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := schedule.NewIndex(time.UTC)
			existingAt10(idx)

			decision := NewResolver(idx).Resolve(company, tt.candidate, false)

			assert.Equal(t, OutcomeAccepted, decision.Outcome)
			assert.Nil(t, decision.Conflict)
		})
	}
}

func TestResolve_IgnoresTerminalAndWalkIns(t *testing.T) {
	idx := schedule.NewIndex(time.UTC)
	canceled := appointment("apt-canceled", "pro-a", at(10, 0), domain.Service{DurationMinutes: 60})
	canceled.Status = domain.StatusCanceled
	idx.Upsert(company, canceled)

	done := appointment("apt-done", "pro-a", at(10, 0), domain.Service{DurationMinutes: 60})
	done.Status = domain.StatusDone
	idx.Upsert(company, done)

	for i := 0; i < 5; i++ {
		idx.Upsert(company, &domain.Appointment{
			ID:             "walk-in-" + string(rune('a'+i)),
			ProfessionalID: "pro-a",
			Services:       []domain.Service{{DurationMinutes: 60}},
			Status:         domain.StatusScheduled,
		})
	}

	decision := NewResolver(idx).Resolve(company, Candidate{ProfessionalID: "pro-a", Start: at(10, 0), End: at(11, 0)}, false)
	assert.Equal(t, OutcomeAccepted, decision.Outcome)
}

func TestResolve_EarliestConflictFirst(t *testing.T) {
	idx := schedule.NewIndex(time.UTC)
	idx.Upsert(company, appointment("late", "pro-a", at(11, 0), domain.Service{DurationMinutes: 30}))
	idx.Upsert(company, appointment("early", "pro-a", at(10, 0), domain.Service{DurationMinutes: 30}))

	decision := NewResolver(idx).Resolve(company, Candidate{ProfessionalID: "pro-a", Start: at(9, 45), End: at(11, 15)}, false)

	assert.Equal(t, OutcomeRejected, decision.Outcome)
	assert.Equal(t, "early", decision.Conflict.ID)
	require.Len(t, decision.Conflicts, 2)
	assert.Equal(t, "late", decision.Conflicts[1].ID)

	// Вытеснение первой записи открывает следующий конфликт
	candidate := Candidate{ProfessionalID: "pro-a", Start: at(9, 45), End: at(11, 15), ExcludeIDs: []string{"early"}}
	assert.Equal(t, "late", NewResolver(idx).Resolve(company, candidate, false).Conflict.ID)
}

func TestResolve_AcrossMidnight(t *testing.T) {
	idx := schedule.NewIndex(time.UTC)
	idx.Upsert(company, appointment("night", "pro-a", at(23, 30), domain.Service{DurationMinutes: 60}))

	next := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	decision := NewResolver(idx).Resolve(company, Candidate{ProfessionalID: "pro-a", Start: next, End: next.Add(30 * time.Minute)}, false)

	assert.Equal(t, OutcomeRejected, decision.Outcome)
	assert.Equal(t, "night", decision.Conflict.ID)
}
