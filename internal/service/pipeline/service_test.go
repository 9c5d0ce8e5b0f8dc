package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

var (
	cut   = domain.Service{ID: "cut", Name: "Corte", DurationMinutes: 20, BufferAfterMinutes: 10}
	color = domain.Service{ID: "color", Name: "Coloração", DurationMinutes: 25, BufferAfterMinutes: 5}
)

func TestCreate_DerivesEndFromServices(t *testing.T) {
	h := newHarness(t)

	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"wash", "beard"},
		StartAt:        &start,
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeAccepted, result.Outcome)
	assert.Equal(t, StateConfirmed, result.State)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 50, 0, 0, time.UTC), *result.Appointment.EndAt)
	assert.Equal(t, "Ana", result.Appointment.ProfessionalName)

	indexed, ok := h.index.Get(company, result.Appointment.ID)
	require.True(t, ok)
	assert.Equal(t, *result.Appointment.EndAt, *indexed.EndAt)
	assert.Equal(t, []string{"insert:" + result.Appointment.ID}, h.store.calls)
	assert.Equal(t, []events.Type{events.TypeApplied, events.TypeConfirmed}, h.events.types())
}

func TestCreate_WalkInsNeverConflict(t *testing.T) {
	h := newHarness(t)
	h.seed("busy", "pro-a", tp(at(10, 0)), cut)

	for i := 0; i < 10; i++ {
		result, err := h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"wash"}})
		require.NoError(t, err)
		assert.Equal(t, conflict.OutcomeAccepted, result.Outcome)
		assert.True(t, result.Appointment.IsWalkIn())
	}

	// Walk-in записи не занимают сетку
	result, err := h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"wash"}, StartAt: tp(at(11, 0))})
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeAccepted, result.Outcome)

	assert.Len(t, h.index.AppointmentsFor(company, "pro-a", day).WalkIns, 10)
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.ConflictOutcomes.WithLabelValues("agenda", "rejected")))
}

func TestCreate_RejectedWithConflictingAppointment(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-10", "pro-a", tp(at(10, 0)), cut)
	before := h.index.Snapshot(company)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"color"},
		StartAt:        tp(at(10, 15)),
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeRejected, result.Outcome)
	assert.False(t, result.Applied())
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "apt-10", result.Conflict.ID)
	assert.Equal(t, "Cliente apt-10", *result.Conflict.ClientName)
	assert.Equal(t, "Ana", result.Conflict.ProfessionalName)
	assert.Equal(t, []string{"Corte"}, result.Conflict.ServiceNames())

	assert.Equal(t, before, h.index.Snapshot(company))
	assert.Empty(t, h.store.calls)
}

func TestCreate_ForceOverbook(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.AllowOverbooking = true
	h.seed("apt-10", "pro-a", tp(at(10, 0)), cut)

	req := &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"color"}, StartAt: tp(at(10, 15))}

	result, err := h.svc.Create(h.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeRequiresDecision, result.Outcome)
	assert.Equal(t, "apt-10", result.Conflict.ID)
	assert.False(t, result.Applied())

	req.Resolution = &Resolution{Choice: ChoiceForceOverbook}
	result, err = h.svc.Create(h.ctx, req)
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeAccepted, result.Outcome)
	assert.True(t, result.Appointment.Overbooked)

	scheduled := h.index.AppointmentsFor(company, "pro-a", day).Scheduled
	require.Len(t, scheduled, 2)
	assert.Equal(t, "apt-10", scheduled[0].ID)
	assert.False(t, scheduled[0].Overbooked)
	assert.True(t, scheduled[1].Overbooked)
}

func TestCreate_ForceOverbookIgnoredWhenPolicyDisallows(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-10", "pro-a", tp(at(10, 0)), cut)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"color"},
		StartAt:        tp(at(10, 15)),
		Resolution:     &Resolution{Choice: ChoiceForceOverbook},
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeRejected, result.Outcome)
	assert.False(t, result.Applied())
}

func TestCreate_SubstituteDisplacesToWalkIn(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.AllowOverbooking = true
	h.seed("apt-10", "pro-a", tp(at(10, 0)), cut)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"color"},
		StartAt:        tp(at(10, 15)),
		Resolution:     &Resolution{Choice: ChoiceSubstitute, DisplaceIDs: []string{"apt-10"}},
	})
	require.NoError(t, err)

	assert.Equal(t, StateConfirmed, result.State)
	assert.False(t, result.Appointment.Overbooked)
	require.Len(t, result.Displaced, 1)
	assert.True(t, result.Displaced[0].IsWalkIn())

	view := h.index.AppointmentsFor(company, "pro-a", day)
	require.Len(t, view.Scheduled, 1)
	assert.Equal(t, result.Appointment.ID, view.Scheduled[0].ID)
	require.Len(t, view.WalkIns, 1)
	assert.Equal(t, "apt-10", view.WalkIns[0].ID)

	assert.Equal(t, []string{"update:apt-10", "insert:" + result.Appointment.ID}, h.store.calls)
	stored, err := h.store.GetAppointment(context.Background(), company, "apt-10")
	require.NoError(t, err)
	assert.Nil(t, stored.StartAt)
}

func TestCreate_SubstituteReportsNextConflict(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.AllowOverbooking = true
	h.seed("first", "pro-a", tp(at(10, 0)), cut)
	h.seed("second", "pro-a", tp(at(10, 30)), cut)
	before := h.index.Snapshot(company)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"wash", "wash"},
		StartAt:        tp(at(10, 0)),
		Resolution:     &Resolution{Choice: ChoiceSubstitute, DisplaceIDs: []string{"first"}},
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeRequiresDecision, result.Outcome)
	assert.Equal(t, "second", result.Conflict.ID)
	assert.False(t, result.Applied())
	assert.Equal(t, before, h.index.Snapshot(company))
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   *CreateRequest
		field string
	}{
		{"missing professional", &CreateRequest{ServiceIDs: []string{"cut"}}, "professionalId"},
		{"no services", &CreateRequest{ProfessionalID: "pro-a"}, "serviceIds"},
		{"unknown professional", &CreateRequest{ProfessionalID: "ghost", ServiceIDs: []string{"cut"}}, "professionalId"},
		{"inactive professional", &CreateRequest{ProfessionalID: "inactive", ServiceIDs: []string{"cut"}}, "professionalId"},
		{"unknown service", &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"nails"}}, "serviceIds"},
		{"zero duration", &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"consult"}, StartAt: tp(at(9, 0))}, "serviceIds"},
		{"malformed start", &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}, StartAt: &time.Time{}}, "startAt"},
		{"unknown choice", &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}, Resolution: &Resolution{Choice: "ignore"}}, "resolution.choice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.svc.Create(h.ctx, tt.req)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, h.events.types())
		})
	}
}

func TestCreate_RequiresTenant(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Create(context.Background(), &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}})
	assert.ErrorIs(t, err, tenant.ErrNoTenant)
}

func TestMove_RollbackOnPersistenceFailure(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.seed("apt-2", "pro-b", tp(at(9, 0)), cut)
	h.index.Upsert(company, &domain.Appointment{ID: "walk-in", ProfessionalID: "pro-a", Status: domain.StatusScheduled})
	before := h.index.Snapshot(company)

	h.store.failWith = errors.New("row version mismatch")

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", ProfessionalID: "pro-b", StartAt: tp(at(14, 0))})
	require.Error(t, err)
	assert.Nil(t, result)

	var persistenceErr *PersistenceError
	require.ErrorAs(t, err, &persistenceErr)
	assert.Equal(t, "apt-1", persistenceErr.AppointmentID)
	assert.ErrorIs(t, err, ErrPersistence)

	assert.Equal(t, before, h.index.Snapshot(company))
	reverted, ok := h.index.Get(company, "apt-1")
	require.True(t, ok)
	assert.Equal(t, "pro-a", reverted.ProfessionalID)
	assert.Equal(t, at(9, 0), *reverted.StartAt)

	assert.Equal(t, []events.Type{events.TypeApplied, events.TypeRolledBack}, h.events.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Rollbacks.WithLabelValues("agenda", "MoveAppointment")))
}

func TestMove_RecomputesEndFromExistingServices(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut, color)

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(13, 0))})
	require.NoError(t, err)

	assert.Equal(t, "pro-a", result.Appointment.ProfessionalID)
	assert.Equal(t, at(14, 0), *result.Appointment.EndAt)
}

func TestMove_ExcludesItself(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(9, 15))})
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeAccepted, result.Outcome)
}

func TestMove_OfflineIsQueued(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.connectivity.online = false

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(15, 0))})
	require.NoError(t, err)

	assert.Equal(t, StatePendingSync, result.State)
	assert.Empty(t, h.store.calls)
	require.Len(t, h.queue.items, 1)
	assert.Equal(t, domain.MutationMove, h.queue.items[0].Kind())

	indexed, _ := h.index.Get(company, "apt-1")
	assert.Equal(t, at(15, 0), *indexed.StartAt)
	assert.Equal(t, []events.Type{events.TypeApplied, events.TypePendingSync}, h.events.types())
}

func TestMove_TimeoutTreatedAsOffline(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.store.block = true

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(15, 0))})
	require.NoError(t, err)

	assert.Equal(t, StatePendingSync, result.State)
	require.Len(t, h.queue.items, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.QueuedMutations.WithLabelValues("agenda", "move_appointment")))
}

func TestMove_QueueFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.connectivity.online = false
	h.queue.err = errors.New("disk full")
	before := h.index.Snapshot(company)

	_, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(15, 0))})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, before, h.index.Snapshot(company))
}

func TestMove_ToWalkIn(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1"})
	require.NoError(t, err)

	assert.True(t, result.Appointment.IsWalkIn())
	view := h.index.AppointmentsFor(company, "pro-a", day)
	assert.Empty(t, view.Scheduled)
	assert.Len(t, view.WalkIns, 1)
}

func TestMove_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "missing", StartAt: tp(at(9, 0))})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestMove_LoadsFromStoreWhenNotIndexed(t *testing.T) {
	h := newHarness(t)
	a := &domain.Appointment{ID: "apt-1", CompanyID: company, ProfessionalID: "pro-a", Services: []domain.Service{cut}, Status: domain.StatusScheduled}
	a.Reschedule(tp(at(9, 0)))
	h.store.put(a)

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(11, 0))})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, result.State)

	_, ok := h.index.Get(company, "apt-1")
	assert.True(t, ok)
}

func TestMove_SerializedPerAppointment(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			_, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(hour, 0))})
			assert.NoError(t, err)
		}(10 + i)
	}
	wg.Wait()

	// Последняя примененная мутация совпадает в индексе и хранилище
	indexed, _ := h.index.Get(company, "apt-1")
	stored, _ := h.store.GetAppointment(context.Background(), company, "apt-1")
	assert.Equal(t, *stored.StartAt, *indexed.StartAt)
	assert.Len(t, h.index.AppointmentsFor(company, "pro-a", day).Scheduled, 1)
}

func TestSetStatus_TerminalCannotBeLeft(t *testing.T) {
	h := newHarness(t)
	a := h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	a.Status = domain.StatusDone
	h.index.Upsert(company, a)

	_, err := h.svc.SetStatus(h.ctx, &StatusRequest{AppointmentID: "apt-1", Status: domain.StatusScheduled})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetStatus_AnyFromNonTerminal(t *testing.T) {
	for _, status := range []domain.AppointmentStatus{domain.StatusInProgress, domain.StatusDone, domain.StatusNoShow, domain.StatusCanceled} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness(t)
			h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

			result, err := h.svc.SetStatus(h.ctx, &StatusRequest{AppointmentID: "apt-1", Status: status})
			require.NoError(t, err)
			assert.Equal(t, status, result.Appointment.Status)
		})
	}
}

func TestSetStatus_LateCancellationAndSuggestions(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.clock.now = at(8, 0)

	result, err := h.svc.SetStatus(h.ctx, &StatusRequest{AppointmentID: "apt-1", Status: domain.StatusCanceled})
	require.NoError(t, err)

	assert.True(t, result.LateCancellation)
	require.NotNil(t, result.Suggestions)
	assert.Equal(t, "wait-1", result.Suggestions.Waitlist[0].ID)
	assert.Equal(t, []string{"pro-a@09:00"}, h.advisor.calls)

	// Отмененная запись больше не блокирует время
	created, err := h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}, StartAt: tp(at(9, 0))})
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeAccepted, created.Outcome)
}

func TestSetStatus_EarlyCancellation(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(15, 0)), cut)
	h.clock.now = at(8, 0)

	result, err := h.svc.SetStatus(h.ctx, &StatusRequest{AppointmentID: "apt-1", Status: domain.StatusCanceled})
	require.NoError(t, err)
	assert.False(t, result.LateCancellation)
}

func TestSetStatus_DoneSuggestsNextVisit(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.SuggestNextVisitDays = 21
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	result, err := h.svc.SetStatus(h.ctx, &StatusRequest{AppointmentID: "apt-1", Status: domain.StatusDone})
	require.NoError(t, err)

	require.NotNil(t, result.SuggestedNextVisit)
	assert.Equal(t, at(9, 0).AddDate(0, 0, 21), *result.SuggestedNextVisit)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	deleted, err := h.svc.SoftDelete(h.ctx, "apt-1")
	require.NoError(t, err)
	require.NotNil(t, deleted.Appointment.DeletedAt)
	_, ok := h.index.Get(company, "apt-1")
	assert.False(t, ok)

	trash, err := h.svc.Trash(h.ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)

	restored, err := h.svc.Restore(h.ctx, &RestoreRequest{AppointmentID: "apt-1"})
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, restored.State)
	assert.Nil(t, restored.Appointment.DeletedAt)

	_, ok = h.index.Get(company, "apt-1")
	assert.True(t, ok)
}

func TestRestore_ChecksConflicts(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	_, err := h.svc.SoftDelete(h.ctx, "apt-1")
	require.NoError(t, err)

	// Время заняли, пока запись была в корзине
	_, err = h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}, StartAt: tp(at(9, 0))})
	require.NoError(t, err)

	result, err := h.svc.Restore(h.ctx, &RestoreRequest{AppointmentID: "apt-1"})
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeRejected, result.Outcome)
	assert.False(t, result.Applied())
}

func TestRestore_RetentionExpired(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	_, err := h.svc.SoftDelete(h.ctx, "apt-1")
	require.NoError(t, err)

	h.clock.now = h.clock.now.Add(domain.TrashRetention + time.Hour)

	_, err = h.svc.Restore(h.ctx, &RestoreRequest{AppointmentID: "apt-1"})
	assert.ErrorIs(t, err, ErrRetentionExpired)
}

func TestRestore_NotDeleted(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)

	_, err := h.svc.Restore(h.ctx, &RestoreRequest{AppointmentID: "apt-1"})
	assert.ErrorIs(t, err, ErrNotDeleted)
}

func TestWithinTx_RequiresConnectivity(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online = false
	before := h.index.Snapshot(company)

	_, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"cut"},
		StartAt:        tp(at(9, 0)),
		WithinTx:       func(context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, ErrOfflineConversion)
	assert.Equal(t, before, h.index.Snapshot(company))
	assert.Empty(t, h.queue.items)
}

func TestWithinTx_FailureRollsBack(t *testing.T) {
	h := newHarness(t)
	before := h.index.Snapshot(company)

	_, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"cut"},
		StartAt:        tp(at(9, 0)),
		ClientName:     ptr.Ptr("Maria"),
		WithinTx:       func(context.Context) error { return errors.New("waitlist entry locked") },
	})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, before, h.index.Snapshot(company))
}

func TestAgenda_RefreshesFromStore(t *testing.T) {
	h := newHarness(t)
	a := &domain.Appointment{ID: "remote", CompanyID: company, ProfessionalID: "pro-a", Services: []domain.Service{cut}, Status: domain.StatusScheduled}
	a.Reschedule(tp(at(9, 0)))
	h.store.put(a)

	view, err := h.svc.Agenda(h.ctx, at(12, 0), "pro-a")
	require.NoError(t, err)
	require.Len(t, view.Scheduled, 1)
	assert.Equal(t, "remote", view.Scheduled[0].ID)
}

func TestAgenda_KeepsPendingIndexState(t *testing.T) {
	h := newHarness(t)
	h.connectivity.online = false

	created, err := h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"cut"}, StartAt: tp(at(9, 0))})
	require.NoError(t, err)
	require.Equal(t, StatePendingSync, created.State)

	h.connectivity.online = true
	view, err := h.svc.Agenda(h.ctx, at(12, 0), "")
	require.NoError(t, err)
	require.Len(t, view.Scheduled, 1)
	assert.Equal(t, created.Appointment.ID, view.Scheduled[0].ID)
}

func TestCreate_ConflictsWithAppointmentOnlyInStore(t *testing.T) {
	h := newHarness(t)
	stored := &domain.Appointment{ID: "stored", CompanyID: company, ProfessionalID: "pro-a", Services: []domain.Service{cut}, Status: domain.StatusScheduled}
	stored.Reschedule(tp(at(10, 0)))
	h.store.put(stored)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"color"},
		StartAt:        tp(at(10, 15)),
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeRejected, result.Outcome)
	require.NotNil(t, result.Conflict)
	assert.Equal(t, "stored", result.Conflict.ID)
	assert.Empty(t, h.store.calls)
	assert.True(t, h.index.IsLoaded(company, day))
}

func TestCreate_ConflictsWithStoredAppointmentFromPreviousDay(t *testing.T) {
	h := newHarness(t)
	// 23:50 + 30 минут переходит через полночь
	late := &domain.Appointment{ID: "late", CompanyID: company, ProfessionalID: "pro-a", Services: []domain.Service{cut}, Status: domain.StatusScheduled}
	late.Reschedule(tp(at(23, 50)))
	h.store.put(late)

	result, err := h.svc.Create(h.ctx, &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"cut"},
		StartAt:        tp(at(24, 0)),
	})
	require.NoError(t, err)

	assert.Equal(t, conflict.OutcomeRejected, result.Outcome)
	assert.Equal(t, "late", result.Conflict.ID)
}

func TestCreate_OfflineChecksIndexOnly(t *testing.T) {
	h := newHarness(t)
	stored := &domain.Appointment{ID: "stored", CompanyID: company, ProfessionalID: "pro-a", Services: []domain.Service{cut}, Status: domain.StatusScheduled}
	stored.Reschedule(tp(at(10, 0)))
	h.store.put(stored)
	h.connectivity.online = false

	result, err := h.svc.Create(h.ctx, &CreateRequest{ProfessionalID: "pro-a", ServiceIDs: []string{"color"}, StartAt: tp(at(10, 15))})
	require.NoError(t, err)

	assert.Equal(t, StatePendingSync, result.State)
	assert.False(t, h.index.IsLoaded(company, day))
}

func TestCreate_SubstituteWaitsForDisplacedAppointment(t *testing.T) {
	h := newHarness(t)
	h.settings.settings.AllowOverbooking = true
	h.seed("apt-10", "pro-a", tp(at(10, 0)), cut)
	before := h.index.Snapshot(company)

	req := &CreateRequest{
		ProfessionalID: "pro-a",
		ServiceIDs:     []string{"color"},
		StartAt:        tp(at(10, 15)),
		Resolution:     &Resolution{Choice: ChoiceSubstitute, DisplaceIDs: []string{"apt-10"}},
	}

	// apt-10 сейчас меняет другая мутация
	unlock := h.svc.lock(company, "apt-10")
	result, err := h.svc.Create(h.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, conflict.OutcomeRequiresDecision, result.Outcome)
	assert.Equal(t, "apt-10", result.Conflict.ID)
	assert.False(t, result.Applied())
	assert.Equal(t, before, h.index.Snapshot(company))
	assert.Empty(t, h.store.calls)
	unlock()

	result, err = h.svc.Create(h.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, result.State)
	require.Len(t, result.Displaced, 1)
	assert.Equal(t, "apt-10", result.Displaced[0].ID)
	assert.Empty(t, h.svc.locks.locks)
}

func TestMove_ZeroDurationCannotBePlaced(t *testing.T) {
	h := newHarness(t)
	h.seed("consult-1", "pro-a", nil, domain.Service{ID: "consult", Name: "Consulta"})

	_, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "consult-1", StartAt: tp(at(10, 0))})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "serviceIds", verr.Field)
	assert.Empty(t, h.store.calls)

	indexed, _ := h.index.Get(company, "consult-1")
	assert.True(t, indexed.IsWalkIn())
}

func TestMove_UnavailableStoreMarksOffline(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.store.block = true

	result, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(15, 0))})
	require.NoError(t, err)
	require.Equal(t, StatePendingSync, result.State)

	assert.False(t, h.connectivity.IsOnline())
	require.Len(t, h.connectivity.causes, 1)
	assert.ErrorIs(t, h.connectivity.causes[0], context.DeadlineExceeded)

	// Следующая мутация сразу уходит в очередь, не дожидаясь таймаута
	h.store.block = false
	result, err = h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(16, 0))})
	require.NoError(t, err)
	assert.Equal(t, StatePendingSync, result.State)
	assert.Len(t, h.queue.items, 2)
}

func TestMove_RejectedPersistenceKeepsConnectivity(t *testing.T) {
	h := newHarness(t)
	h.seed("apt-1", "pro-a", tp(at(9, 0)), cut)
	h.store.failWith = errors.New("check constraint violated")

	_, err := h.svc.Move(h.ctx, &MoveRequest{AppointmentID: "apt-1", StartAt: tp(at(15, 0))})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.True(t, h.connectivity.IsOnline())
	assert.Empty(t, h.connectivity.causes)
}
