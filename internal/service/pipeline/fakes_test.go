package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	appointmentRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-AgendaService/internal/service/conflict"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/metrics"
)

const company = "company-1"

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func tp(t time.Time) *time.Time {
	return &t
}

type fakeStore struct {
	mu           sync.Mutex
	appointments map[string]*domain.Appointment
	calls        []string

	failWith error
	block    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{appointments: make(map[string]*domain.Appointment)}
}

func (s *fakeStore) record(call string, ctx context.Context) error {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	block, failWith := s.block, s.failWith
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return fmt.Errorf("%w: %w", appointmentRepo.ErrUnavailable, ctx.Err())
	}
	return failWith
}

func (s *fakeStore) InsertAppointment(ctx context.Context, a *domain.Appointment) error {
	if err := s.record("insert:"+a.ID, ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a.Clone()
	return nil
}

func (s *fakeStore) UpdateAppointment(ctx context.Context, _ string, id string, patch domain.AppointmentPatch) error {
	if err := s.record("update:"+id, ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	if patch.ProfessionalID != nil {
		a.ProfessionalID = *patch.ProfessionalID
	}
	if patch.ClearSchedule {
		a.StartAt, a.EndAt = nil, nil
	}
	if patch.StartAt != nil {
		a.StartAt, a.EndAt = tp(*patch.StartAt), tp(*patch.EndAt)
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Overbooked != nil {
		a.Overbooked = *patch.Overbooked
	}
	if patch.ClearDeletedAt {
		a.DeletedAt = nil
	}
	return nil
}

func (s *fakeStore) SoftDeleteAppointment(ctx context.Context, _ string, id string, deletedAt time.Time) error {
	if err := s.record("delete:"+id, ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.appointments[id]; ok {
		a.DeletedAt = tp(deletedAt)
	}
	return nil
}

func (s *fakeStore) GetAppointment(_ context.Context, _ string, id string) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return a.Clone(), nil
}

func (s *fakeStore) LoadDayAppointments(_ context.Context, _ string, from, to time.Time) ([]*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range s.appointments {
		if a.IsDeleted() {
			continue
		}
		if a.StartAt == nil || (!a.StartAt.Before(from) && a.StartAt.Before(to)) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) ListDeleted(_ context.Context, _ string, since time.Time) ([]*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range s.appointments {
		if a.DeletedAt != nil && !a.DeletedAt.Before(since) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) put(a *domain.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a.Clone()
}

type fakeCatalog struct {
	professionals map[string]*domain.Professional
	services      map[string]domain.Service
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		professionals: map[string]*domain.Professional{
			"pro-a":    {ID: "pro-a", Name: "Ana", Active: true},
			"pro-b":    {ID: "pro-b", Name: "Bruno", Active: true},
			"inactive": {ID: "inactive", Name: "Carla", Active: false},
		},
		services: map[string]domain.Service{
			"cut":     {ID: "cut", Name: "Corte", DurationMinutes: 20, BufferAfterMinutes: 10},
			"color":   {ID: "color", Name: "Coloração", DurationMinutes: 25, BufferAfterMinutes: 5},
			"wash":    {ID: "wash", Name: "Lavagem", DurationMinutes: 30},
			"beard":   {ID: "beard", Name: "Barba", DurationMinutes: 15, BufferAfterMinutes: 5},
			"consult": {ID: "consult", Name: "Consulta"},
		},
	}
}

func (c *fakeCatalog) GetProfessional(_ context.Context, _ string, id string) (*domain.Professional, error) {
	p, ok := c.professionals[id]
	if !ok {
		return nil, catalogRepo.ErrProfessionalNotFound
	}
	return p, nil
}

func (c *fakeCatalog) GetServices(_ context.Context, _ string, ids []string) ([]domain.Service, error) {
	out := make([]domain.Service, 0, len(ids))
	for _, id := range ids {
		s, ok := c.services[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%s", catalogRepo.ErrServiceNotFound, id)
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeSettings struct {
	settings *domain.AgendaSettings
}

func (s *fakeSettings) GetAgendaSettings(_ context.Context, companyID string) (*domain.AgendaSettings, error) {
	copied := *s.settings
	copied.CompanyID = companyID
	return &copied, nil
}

type fakeQueue struct {
	mu    sync.Mutex
	items []domain.Mutation
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, _ string, mutations ...domain.Mutation) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	ids := make([]string, len(mutations))
	for i, m := range mutations {
		q.items = append(q.items, m)
		ids[i] = fmt.Sprintf("item-%d", len(q.items))
	}
	return ids, nil
}

func (q *fakeQueue) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

type fakeConnectivity struct {
	mu     sync.Mutex
	online bool
	causes []error
}

func (c *fakeConnectivity) IsOnline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *fakeConnectivity) MarkOffline(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = false
	c.causes = append(c.causes, cause)
}

type fakeAdvisor struct {
	calls []string
}

func (a *fakeAdvisor) SuggestForSlot(_ context.Context, _ string, professionalID string, slot time.Time) (*domain.SlotSuggestions, error) {
	a.calls = append(a.calls, professionalID+"@"+slot.Format(domain.TimeFormat))
	return &domain.SlotSuggestions{
		Waitlist: []*domain.WaitlistEntry{{ID: "wait-1", Priority: domain.PriorityUrgent}},
	}, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Handle(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type harness struct {
	svc          *Service
	store        *fakeStore
	index        *schedule.Index
	catalog      *fakeCatalog
	settings     *fakeSettings
	queue        *fakeQueue
	connectivity *fakeConnectivity
	advisor      *fakeAdvisor
	events       *eventRecorder
	metrics      *metrics.Metrics
	clock        *fixedClock
	ctx          context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:        newFakeStore(),
		index:        schedule.NewIndex(time.UTC),
		catalog:      newFakeCatalog(),
		settings:     &fakeSettings{settings: domain.DefaultAgendaSettings(company)},
		queue:        &fakeQueue{},
		connectivity: &fakeConnectivity{online: true},
		advisor:      &fakeAdvisor{},
		events:       &eventRecorder{},
		metrics:      metrics.NewWithRegistry(prometheus.NewRegistry(), "agenda"),
		clock:        &fixedClock{now: at(8, 0)},
		ctx:          tenant.WithCompanyID(context.Background(), company),
	}

	bus := events.NewBus()
	bus.Subscribe(h.events)

	h.svc = NewService(Dependencies{
		Store:        h.store,
		Index:        h.index,
		Resolver:     conflict.NewResolver(h.index),
		Catalog:      h.catalog,
		Settings:     h.settings,
		Queue:        h.queue,
		Connectivity: h.connectivity,
		Advisor:      h.advisor,
		Publisher:    bus,
		Metrics:      h.metrics,
		TxManager:    passthroughTx{},
		TimeProvider: h.clock,
		Logger:       logger.NewNop(),
	}, Config{PersistTimeout: 50 * time.Millisecond})

	return h
}

// seed кладет запись в индекс и хранилище, минуя пайплайн
func (h *harness) seed(id, professionalID string, start *time.Time, services ...domain.Service) *domain.Appointment {
	clientName := "Cliente " + id
	a := &domain.Appointment{
		ID:               id,
		CompanyID:        company,
		ProfessionalID:   professionalID,
		Services:         services,
		Status:           domain.StatusScheduled,
		ClientName:       &clientName,
		ProfessionalName: h.catalog.professionals[professionalID].Name,
	}
	a.Reschedule(start)
	h.index.Upsert(company, a)
	h.store.put(a)
	return a
}
