package add_waitlist_entry

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/waitlist"
)

// AddWaitlistEntryRequest HTTP request model
type AddWaitlistEntryRequest struct {
	ClientID       string  `json:"clientId"`
	ProfessionalID *string `json:"professionalId,omitempty"` // null = любой профессионал
	DesiredDate    *string `json:"desiredDate,omitempty"`    // "2025-10-15"
	Priority       string  `json:"priority,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос, разбирая дату в часовом поясе агенды
func (r *AddWaitlistEntryRequest) ToServiceRequest(loc *time.Location) (*waitlist.AddRequest, error) {
	req := &waitlist.AddRequest{
		ClientID:       r.ClientID,
		ProfessionalID: r.ProfessionalID,
		Priority:       domain.WaitlistPriority(r.Priority),
		Notes:          r.Notes,
	}
	if r.DesiredDate != nil && *r.DesiredDate != "" {
		date, err := time.ParseInLocation(domain.DateFormat, *r.DesiredDate, loc)
		if err != nil {
			return nil, err
		}
		req.DesiredDate = &date
	}
	return req, nil
}
