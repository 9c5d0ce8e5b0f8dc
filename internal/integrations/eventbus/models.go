package eventbus

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// message тело сообщения о событии агенды
type message struct {
	EventID       string       `json:"eventId"`
	Type          string       `json:"type"`
	CompanyID     string       `json:"companyId"`
	Kind          string       `json:"kind,omitempty"`
	AppointmentID string       `json:"appointmentId,omitempty"`
	Attempts      int          `json:"attempts,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	OccurredAt    time.Time    `json:"occurredAt"`
	Appointment   *appointment `json:"appointment,omitempty"`

	// Подтверждение для клиента, только для подтвержденных записей
	Confirmation *confirmation `json:"confirmation,omitempty"`
}

type appointment struct {
	ID               string     `json:"id"`
	ProfessionalID   string     `json:"professionalId"`
	ProfessionalName string     `json:"professionalName,omitempty"`
	ClientID         *string    `json:"clientId,omitempty"`
	ClientName       *string    `json:"clientName,omitempty"`
	Services         []string   `json:"services"`
	StartAt          *time.Time `json:"startAt,omitempty"`
	EndAt            *time.Time `json:"endAt,omitempty"`
	Status           string     `json:"status"`
	Overbooked       bool       `json:"overbooked"`
}

type confirmation struct {
	Text string `json:"text"`
	// Текст, закодированный для ссылки wa.me
	Encoded string `json:"encoded"`
}

func toAppointment(a *domain.Appointment) *appointment {
	if a == nil {
		return nil
	}
	return &appointment{
		ID:               a.ID,
		ProfessionalID:   a.ProfessionalID,
		ProfessionalName: a.ProfessionalName,
		ClientID:         a.ClientID,
		ClientName:       a.ClientName,
		Services:         a.ServiceNames(),
		StartAt:          a.StartAt,
		EndAt:            a.EndAt,
		Status:           string(a.Status),
		Overbooked:       a.Overbooked,
	}
}
