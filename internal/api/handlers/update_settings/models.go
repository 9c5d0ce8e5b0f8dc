package update_settings

import "github.com/m04kA/SMC-AgendaService/internal/domain"

// UpdateSettingsRequest частичное обновление: отсутствующие поля не меняются
type UpdateSettingsRequest struct {
	AllowOverbooking       *bool `json:"allowOverbooking,omitempty"`
	LateCancelLimitMinutes *int  `json:"lateCancelLimitMinutes,omitempty"`
	SuggestNextVisitDays   *int  `json:"suggestNextVisitDays,omitempty"`
}

func (r *UpdateSettingsRequest) ToPatch() domain.AgendaSettingsPatch {
	return domain.AgendaSettingsPatch{
		AllowOverbooking:       r.AllowOverbooking,
		LateCancelLimitMinutes: r.LateCancelLimitMinutes,
		SuggestNextVisitDays:   r.SuggestNextVisitDays,
	}
}
