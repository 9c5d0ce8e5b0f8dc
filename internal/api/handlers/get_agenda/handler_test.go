package get_agenda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
)

type fakeAgenda struct {
	date           time.Time
	professionalID string
	view           schedule.DayView
	err            error
}

func (f *fakeAgenda) Agenda(_ context.Context, date time.Time, professionalID string) (schedule.DayView, error) {
	f.date = date
	f.professionalID = professionalID
	return f.view, f.err
}

func TestHandle_ParsesDateInAgendaLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, loc)
	service := &fakeAgenda{view: schedule.DayView{
		Scheduled: []*domain.Appointment{{ID: "apt-1", StartAt: &start, Status: domain.StatusScheduled}},
		WalkIns:   []*domain.Appointment{{ID: "apt-2", Status: domain.StatusScheduled}},
	}}
	h := NewHandler(service, loc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agenda?date=2024-03-15&professionalId=pro-a", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), service.date)
	assert.Equal(t, "pro-a", service.professionalID)

	var body AgendaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2024-03-15", body.Date)
	assert.Len(t, body.Scheduled, 1)
	assert.Len(t, body.WalkIns, 1)
	assert.Nil(t, body.WalkIns[0].StartAt)
}

func TestHandle_InvalidDate(t *testing.T) {
	h := NewHandler(&fakeAgenda{}, time.UTC, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agenda?date=15/03/2024", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandle_StoreUnavailable(t *testing.T) {
	h := NewHandler(&fakeAgenda{err: pipeline.ErrStoreUnavailable}, time.UTC, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agenda?date=2024-03-15", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
