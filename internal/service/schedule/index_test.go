package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

const company = "company-1"

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func scheduled(id, professionalID string, start time.Time, minutes int) *domain.Appointment {
	a := &domain.Appointment{
		ID:             id,
		CompanyID:      company,
		ProfessionalID: professionalID,
		Services:       []domain.Service{{ID: "svc-" + id, DurationMinutes: minutes}},
		Status:         domain.StatusScheduled,
	}
	a.Reschedule(&start)
	return a
}

func walkIn(id, professionalID string) *domain.Appointment {
	return &domain.Appointment{
		ID:             id,
		CompanyID:      company,
		ProfessionalID: professionalID,
		Services:       []domain.Service{{ID: "svc", DurationMinutes: 30}},
		Status:         domain.StatusScheduled,
	}
}

func ids(appointments []*domain.Appointment) []string {
	out := make([]string, len(appointments))
	for i, a := range appointments {
		out[i] = a.ID
	}
	return out
}

func TestAppointmentsFor_OrderedByStart(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("c", "pro-1", at(14, 0), 30))
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))
	idx.Upsert(company, scheduled("b", "pro-1", at(10, 0), 30))
	idx.Upsert(company, scheduled("other", "pro-2", at(9, 0), 30))
	idx.Upsert(company, scheduled("tomorrow", "pro-1", at(33, 0), 30))
	idx.Upsert(company, walkIn("w2", "pro-1"))
	idx.Upsert(company, walkIn("w1", "pro-1"))
	idx.Upsert(company, walkIn("w3", "pro-2"))

	view := idx.AppointmentsFor(company, "pro-1", at(12, 0))

	assert.Equal(t, []string{"a", "b", "c"}, ids(view.Scheduled))
	assert.Equal(t, []string{"w2", "w1"}, ids(view.WalkIns))
}

func TestAppointmentsFor_TenantIsolation(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))

	view := idx.AppointmentsFor("company-2", "pro-1", day)
	assert.Empty(t, view.Scheduled)
}

func TestUpsert_MovesBetweenBuckets(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))

	idx.Upsert(company, scheduled("a", "pro-2", at(11, 0), 30))

	assert.Empty(t, idx.AppointmentsFor(company, "pro-1", day).Scheduled)
	assert.Equal(t, []string{"a"}, ids(idx.AppointmentsFor(company, "pro-2", day).Scheduled))
}

func TestUpsert_StoresCopy(t *testing.T) {
	idx := NewIndex(time.UTC)
	a := scheduled("a", "pro-1", at(9, 0), 30)
	idx.Upsert(company, a)

	a.ProfessionalID = "pro-2"

	got, ok := idx.Get(company, "a")
	require.True(t, ok)
	assert.Equal(t, "pro-1", got.ProfessionalID)
}

func TestUpsert_DeletedIsRemoved(t *testing.T) {
	idx := NewIndex(time.UTC)
	a := scheduled("a", "pro-1", at(9, 0), 30)
	idx.Upsert(company, a)

	deletedAt := at(12, 0)
	a.DeletedAt = &deletedAt
	idx.Upsert(company, a)

	_, ok := idx.Get(company, "a")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))
	idx.Upsert(company, walkIn("w", "pro-1"))

	undo := idx.Remove(company, "a")
	require.NotNil(t, undo.Prior)
	assert.Equal(t, "a", undo.Prior.ID)

	idx.Remove(company, "w")
	view := idx.AppointmentsFor(company, "pro-1", day)
	assert.Empty(t, view.Scheduled)
	assert.Empty(t, view.WalkIns)

	missing := idx.Remove(company, "missing")
	assert.Nil(t, missing.Prior)
}

func TestRevert_RestoresIdenticalState(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))
	idx.Upsert(company, scheduled("b", "pro-1", at(10, 0), 30))
	idx.Upsert(company, walkIn("w1", "pro-1"))
	idx.Upsert(company, walkIn("w2", "pro-1"))
	idx.Upsert(company, walkIn("w3", "pro-1"))

	before := idx.Snapshot(company)

	// Перенос, вытеснение в walk-in, новая запись и удаление в одной мутации
	moved := scheduled("a", "pro-2", at(15, 0), 45)
	displaced := walkIn("b", "pro-1")
	undos := []Undo{
		idx.Upsert(company, moved),
		idx.Upsert(company, displaced),
		idx.Upsert(company, scheduled("new", "pro-1", at(9, 0), 60)),
		idx.Remove(company, "w2"),
		idx.Upsert(company, scheduled("w1", "pro-1", at(16, 0), 30)),
	}
	require.NotEqual(t, before, idx.Snapshot(company))

	idx.Revert(undos...)

	assert.Equal(t, before, idx.Snapshot(company))
}

func TestLoad_ReplacesDay(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("stale", "pro-1", at(9, 0), 30))
	idx.Upsert(company, scheduled("tomorrow", "pro-1", at(33, 0), 30))
	idx.Upsert(company, walkIn("old-walkin", "pro-1"))

	deletedAt := at(8, 0)
	trashed := scheduled("trashed", "pro-1", at(11, 0), 30)
	trashed.DeletedAt = &deletedAt

	idx.Load(company, day, []*domain.Appointment{
		scheduled("fresh", "pro-1", at(10, 0), 30),
		walkIn("new-walkin", "pro-1"),
		trashed,
	})

	view := idx.AppointmentsFor(company, "pro-1", day)
	assert.Equal(t, []string{"fresh"}, ids(view.Scheduled))
	assert.Equal(t, []string{"new-walkin"}, ids(view.WalkIns))

	_, ok := idx.Get(company, "tomorrow")
	assert.True(t, ok)
}

func TestDay_AllProfessionals(t *testing.T) {
	idx := NewIndex(time.UTC)
	idx.Upsert(company, scheduled("b", "pro-2", at(10, 0), 30))
	idx.Upsert(company, scheduled("a", "pro-1", at(9, 0), 30))
	idx.Upsert(company, walkIn("w", "pro-2"))

	view := idx.Day(company, day)

	assert.Equal(t, []string{"a", "b"}, ids(view.Scheduled))
	assert.Equal(t, []string{"w"}, ids(view.WalkIns))
}

func TestDayBoundaryUsesLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	idx := NewIndex(loc)

	// 23:30 BRT 15 марта = 02:30 UTC 16 марта
	idx.Upsert(company, scheduled("late", "pro-1", time.Date(2024, 3, 16, 2, 30, 0, 0, time.UTC), 30))

	view := idx.AppointmentsFor(company, "pro-1", time.Date(2024, 3, 15, 12, 0, 0, 0, loc))
	assert.Equal(t, []string{"late"}, ids(view.Scheduled))
}

func TestMerge_KeepsIndexedStateAndMarksDayLoaded(t *testing.T) {
	idx := NewIndex(time.UTC)
	assert.False(t, idx.IsLoaded(company, day))

	// Индекс уже знает новое время "a", хранилище еще старое
	idx.Upsert(company, scheduled("a", "pro-1", at(14, 0), 30))

	idx.Merge(company, day, []*domain.Appointment{
		scheduled("a", "pro-1", at(10, 0), 30),
		scheduled("b", "pro-1", at(11, 0), 30),
	})

	assert.True(t, idx.IsLoaded(company, at(18, 0)))
	assert.False(t, idx.IsLoaded(company, day.AddDate(0, 0, 1)))

	a, ok := idx.Get(company, "a")
	require.True(t, ok)
	assert.Equal(t, at(14, 0), *a.StartAt)

	view := idx.AppointmentsFor(company, "pro-1", day)
	require.Len(t, view.Scheduled, 2)
	assert.Equal(t, "b", view.Scheduled[0].ID)
}

func TestMerge_SkipsRemovedUntilReload(t *testing.T) {
	idx := NewIndex(time.UTC)
	stored := scheduled("a", "pro-1", at(10, 0), 30)
	idx.Upsert(company, stored)
	idx.Remove(company, "a")

	idx.Merge(company, day, []*domain.Appointment{stored})
	_, ok := idx.Get(company, "a")
	assert.False(t, ok)

	// Полная загрузка считает хранилище источником истины
	idx.Load(company, day, []*domain.Appointment{stored})
	_, ok = idx.Get(company, "a")
	assert.True(t, ok)
}

func TestRevert_RestoresRemovedMark(t *testing.T) {
	idx := NewIndex(time.UTC)
	stored := scheduled("a", "pro-1", at(10, 0), 30)
	idx.Upsert(company, stored)

	undo := idx.Remove(company, "a")
	idx.Revert(undo)
	idx.Remove(company, "a")
	idx.Revert(idx.Upsert(company, stored))

	// "a" удалена, откат восстановления возвращает отметку об удалении
	idx.Merge(company, day, []*domain.Appointment{stored})
	_, ok := idx.Get(company, "a")
	assert.False(t, ok)
}
