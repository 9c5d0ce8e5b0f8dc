package get_settings

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// SettingsResponse настройки агенды компании
type SettingsResponse struct {
	CompanyID              string     `json:"companyId"`
	AllowOverbooking       bool       `json:"allowOverbooking"`
	LateCancelLimitMinutes int        `json:"lateCancelLimitMinutes"`
	SuggestNextVisitDays   int        `json:"suggestNextVisitDays"`
	UpdatedAt              *time.Time `json:"updatedAt,omitempty"`
}

func FromDomain(s *domain.AgendaSettings) *SettingsResponse {
	resp := &SettingsResponse{
		CompanyID:              s.CompanyID,
		AllowOverbooking:       s.AllowOverbooking,
		LateCancelLimitMinutes: s.LateCancelLimitMinutes,
		SuggestNextVisitDays:   s.SuggestNextVisitDays,
	}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
