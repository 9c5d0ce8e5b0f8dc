package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/events"
	"github.com/m04kA/SMC-AgendaService/pkg/notify"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

const (
	defaultBufferSize   = 256
	defaultWriteTimeout = 5 * time.Second
)

// MessageWriter интерфейс записи сообщений в брокер (kafka.Writer)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config параметры публикации
type Config struct {
	BufferSize   int
	WriteTimeout time.Duration
	// Часовой пояс для текста подтверждения; nil означает UTC
	Location *time.Location
}

// Publisher публикует события агенды в Kafka.
// Handle не блокирует пайплайн: события буферизуются и пишутся в Run
type Publisher struct {
	writer       MessageWriter
	log          Logger
	buffer       chan events.Event
	writeTimeout time.Duration
	location     *time.Location

	closeOnce sync.Once
	done      chan struct{}
}

// NewWriter создает kafka.Writer для списка брокеров через запятую
func NewWriter(brokers string, topic string) (*kafka.Writer, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNoBrokers
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, nil
}

// NewPublisher создает новый экземпляр издателя
func NewPublisher(writer MessageWriter, cfg Config, log Logger) *Publisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Publisher{
		writer:       writer,
		log:          log,
		buffer:       make(chan events.Event, cfg.BufferSize),
		writeTimeout: cfg.WriteTimeout,
		location:     cfg.Location,
		done:         make(chan struct{}),
	}
}

// Handle принимает событие из шины. При переполненном буфере событие отбрасывается
func (p *Publisher) Handle(_ context.Context, e events.Event) {
	select {
	case p.buffer <- e:
	default:
		p.log.Warn("EventBus: buffer full, dropping event type=%s appointment=%s", e.Type, e.AppointmentID)
	}
}

// Run пишет события в брокер до отмены контекста, затем дописывает остаток буфера
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case e := <-p.buffer:
			p.write(ctx, e)
		case <-ctx.Done():
			p.flush()
			return
		}
	}
}

// Close дожидается завершения Run и закрывает writer
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		<-p.done
		err = p.writer.Close()
	})
	return err
}

func (p *Publisher) flush() {
	for {
		select {
		case e := <-p.buffer:
			p.write(context.Background(), e)
		default:
			return
		}
	}
}

func (p *Publisher) write(ctx context.Context, e events.Event) {
	if err := p.Publish(ctx, e); err != nil {
		p.log.Error("EventBus: failed to publish type=%s appointment=%s: %v", e.Type, e.AppointmentID, err)
	}
}

// Publish синхронно записывает одно событие в брокер
func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	msg, err := p.encode(e)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("%w: Publish - write: %v", ErrWrite, err)
	}
	return nil
}

func (p *Publisher) encode(e events.Event) (kafka.Message, error) {
	body := message{
		EventID:       uuid.NewString(),
		Type:          string(e.Type),
		CompanyID:     e.CompanyID,
		Kind:          string(e.Kind),
		AppointmentID: e.AppointmentID,
		Attempts:      e.Attempts,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt,
		Appointment:   toAppointment(e.Appointment),
	}
	if e.Type == events.TypeConfirmed && confirmable[e.Kind] {
		body.Confirmation = p.confirmation(e)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("%w: encode - marshal: %v", ErrEncode, err)
	}

	key := e.AppointmentID
	if key == "" {
		key = e.CompanyID
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(body.EventID)},
			{Key: "event_type", Value: []byte(body.Type)},
			{Key: "company_id", Value: []byte(e.CompanyID)},
		},
		Time: e.OccurredAt,
	}, nil
}

// confirmable мутации, после которых клиенту отправляется подтверждение
var confirmable = map[domain.MutationKind]bool{
	domain.MutationCreate:  true,
	domain.MutationMove:    true,
	domain.MutationRestore: true,
}

// confirmation формирует текст подтверждения; записям без клиента или времени он не нужен
func (p *Publisher) confirmation(e events.Event) *confirmation {
	a := e.Appointment
	if a == nil || a.IsWalkIn() || a.Status != domain.StatusScheduled {
		return nil
	}
	clientName := ptr.Value(a.ClientName)
	if clientName == "" {
		return nil
	}

	text := notify.ComposeConfirmation(notify.Confirmation{
		ClientName:       clientName,
		ServiceName:      strings.Join(a.ServiceNames(), ", "),
		StartAt:          *a.StartAt,
		ProfessionalName: a.ProfessionalName,
	}, p.location)

	return &confirmation{Text: text, Encoded: notify.EncodeForLink(text)}
}
