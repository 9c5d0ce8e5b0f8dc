package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	"github.com/m04kA/SMC-AgendaService/pkg/logger"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func confirmedEvent() events.Event {
	start := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	return events.Event{
		Type:          events.TypeConfirmed,
		CompanyID:     "company-1",
		Kind:          domain.MutationCreate,
		AppointmentID: "apt-1",
		OccurredAt:    start.Add(-time.Hour),
		Appointment: &domain.Appointment{
			ID:               "apt-1",
			ProfessionalID:   "pro-a",
			ProfessionalName: "Carla",
			ClientName:       ptr.Ptr("Ana"),
			Services:         []domain.Service{{ID: "cut", Name: "Corte"}, {ID: "brush", Name: "Escova"}},
			StartAt:          &start,
			Status:           domain.StatusScheduled,
		},
	}
}

func decode(t *testing.T, msg kafka.Message) message {
	t.Helper()
	var body message
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	return body
}

func TestPublish_ConfirmedCarriesConfirmation(t *testing.T) {
	writer := &fakeWriter{}
	p := NewPublisher(writer, Config{}, logger.NewNop())

	require.NoError(t, p.Publish(context.Background(), confirmedEvent()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "apt-1", string(msg.Key))
	assert.Equal(t, "appointment.confirmed", headerValue(msg, "event_type"))
	assert.Equal(t, "company-1", headerValue(msg, "company_id"))

	body := decode(t, msg)
	assert.Equal(t, []string{"Corte", "Escova"}, body.Appointment.Services)
	require.NotNil(t, body.Confirmation)
	assert.Contains(t, body.Confirmation.Text, "Olá Ana!")
	assert.Contains(t, body.Confirmation.Text, "15/03/2024")
	assert.Contains(t, body.Confirmation.Text, "14:30")
	assert.Contains(t, body.Confirmation.Text, "Corte, Escova")
	assert.NotContains(t, body.Confirmation.Encoded, "+")
}

func TestPublish_NoConfirmation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *events.Event)
	}{
		{name: "applied event", mutate: func(e *events.Event) { e.Type = events.TypeApplied }},
		{name: "status change", mutate: func(e *events.Event) { e.Kind = domain.MutationStatus }},
		{name: "walk-in", mutate: func(e *events.Event) { e.Appointment.StartAt = nil }},
		{name: "no client", mutate: func(e *events.Event) { e.Appointment.ClientName = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{}
			p := NewPublisher(writer, Config{}, logger.NewNop())
			e := confirmedEvent()
			tt.mutate(&e)

			require.NoError(t, p.Publish(context.Background(), e))
			assert.Nil(t, decode(t, writer.messages[0]).Confirmation)
		})
	}
}

func TestPublish_KeyFallsBackToCompany(t *testing.T) {
	writer := &fakeWriter{}
	p := NewPublisher(writer, Config{}, logger.NewNop())

	err := p.Publish(context.Background(), events.Event{Type: events.TypeSyncExhausted, CompanyID: "company-1", Attempts: 4})
	require.NoError(t, err)
	assert.Equal(t, "company-1", string(writer.messages[0].Key))
	assert.Equal(t, 4, decode(t, writer.messages[0]).Attempts)
}

func TestPublish_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisher(writer, Config{}, logger.NewNop())

	err := p.Publish(context.Background(), confirmedEvent())
	assert.ErrorIs(t, err, ErrWrite)
}

func TestRun_DeliversAndFlushes(t *testing.T) {
	writer := &fakeWriter{}
	p := NewPublisher(writer, Config{BufferSize: 8}, logger.NewNop())

	bus := events.NewBus()
	bus.Subscribe(p)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	for i := 0; i < 3; i++ {
		bus.Publish(context.Background(), confirmedEvent())
	}
	assert.Eventually(t, func() bool { return writer.count() == 3 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}

func TestHandle_DropsWhenBufferFull(t *testing.T) {
	writer := &fakeWriter{}
	p := NewPublisher(writer, Config{BufferSize: 1}, logger.NewNop())

	p.Handle(context.Background(), confirmedEvent())
	p.Handle(context.Background(), confirmedEvent())

	assert.Len(t, p.buffer, 1)
}

func TestNewWriter(t *testing.T) {
	_, err := NewWriter(" , ", "agenda.events")
	assert.ErrorIs(t, err, ErrNoBrokers)

	w, err := NewWriter("kafka-1:9092, kafka-2:9092", "agenda.events")
	require.NoError(t, err)
	assert.Equal(t, "agenda.events", w.Topic)
	assert.NotNil(t, w.Addr)
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
