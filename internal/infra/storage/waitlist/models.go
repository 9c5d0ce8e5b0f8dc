package waitlist

import (
	"database/sql"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// entryRow строка waitlist вместе с именами клиента и профессионала
type entryRow struct {
	ID               string
	CompanyID        string
	ClientID         string
	ProfessionalID   sql.NullString
	DesiredDate      sql.NullTime
	Priority         string
	Position         int
	Notes            sql.NullString
	CreatedAt        time.Time
	ClientName       sql.NullString
	ClientPhone      sql.NullString
	ProfessionalName sql.NullString
}

func (r *entryRow) dest() []interface{} {
	return []interface{}{
		&r.ID, &r.CompanyID, &r.ClientID, &r.ProfessionalID, &r.DesiredDate,
		&r.Priority, &r.Position, &r.Notes, &r.CreatedAt,
		&r.ClientName, &r.ClientPhone, &r.ProfessionalName,
	}
}

func (r *entryRow) toDomain() *domain.WaitlistEntry {
	return &domain.WaitlistEntry{
		ID:               r.ID,
		CompanyID:        r.CompanyID,
		ClientID:         r.ClientID,
		ProfessionalID:   stringPtr(r.ProfessionalID),
		DesiredDate:      timePtr(r.DesiredDate),
		Priority:         domain.WaitlistPriority(r.Priority),
		Position:         r.Position,
		Notes:            stringPtr(r.Notes),
		ClientName:       r.ClientName.String,
		ClientPhone:      stringPtr(r.ClientPhone),
		ProfessionalName: stringPtr(r.ProfessionalName),
		CreatedAt:        r.CreatedAt,
	}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
