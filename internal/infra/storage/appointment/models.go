package appointment

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// serviceRow снимок услуги внутри записи (колонка services jsonb)
type serviceRow struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	DurationMinutes    int    `json:"durationMinutes"`
	BufferAfterMinutes int    `json:"bufferAfterMinutes"`
}

func encodeServices(services []domain.Service) ([]byte, error) {
	rows := make([]serviceRow, len(services))
	for i, s := range services {
		rows[i] = serviceRow{
			ID:                 s.ID,
			Name:               s.Name,
			DurationMinutes:    s.DurationMinutes,
			BufferAfterMinutes: s.BufferAfterMinutes,
		}
	}
	return json.Marshal(rows)
}

func decodeServices(data []byte) ([]domain.Service, error) {
	var rows []serviceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	services := make([]domain.Service, len(rows))
	for i, r := range rows {
		services[i] = domain.Service{
			ID:                 r.ID,
			Name:               r.Name,
			DurationMinutes:    r.DurationMinutes,
			BufferAfterMinutes: r.BufferAfterMinutes,
		}
	}
	return services, nil
}

// appointmentRow промежуточная структура для сканирования nullable колонок
type appointmentRow struct {
	id               string
	companyID        string
	professionalID   string
	clientID         sql.NullString
	services         []byte
	startAt          sql.NullTime
	endAt            sql.NullTime
	status           string
	overbooked       bool
	notes            sql.NullString
	clientName       sql.NullString
	professionalName string
	deletedAt        sql.NullTime
	createdAt        sql.NullTime
	updatedAt        sql.NullTime
}

func (r *appointmentRow) dest() []interface{} {
	return []interface{}{
		&r.id,
		&r.companyID,
		&r.professionalID,
		&r.clientID,
		&r.services,
		&r.startAt,
		&r.endAt,
		&r.status,
		&r.overbooked,
		&r.notes,
		&r.clientName,
		&r.professionalName,
		&r.deletedAt,
		&r.createdAt,
		&r.updatedAt,
	}
}

func (r *appointmentRow) toDomain() (*domain.Appointment, error) {
	services, err := decodeServices(r.services)
	if err != nil {
		return nil, err
	}

	return &domain.Appointment{
		ID:               r.id,
		CompanyID:        r.companyID,
		ProfessionalID:   r.professionalID,
		ClientID:         nullString(r.clientID),
		Services:         services,
		StartAt:          nullTime(r.startAt),
		EndAt:            nullTime(r.endAt),
		Status:           domain.AppointmentStatus(r.status),
		Overbooked:       r.overbooked,
		Notes:            nullString(r.notes),
		ClientName:       nullString(r.clientName),
		ProfessionalName: r.professionalName,
		DeletedAt:        nullTime(r.deletedAt),
		CreatedAt:        r.createdAt.Time,
		UpdatedAt:        r.updatedAt.Time,
	}, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
