package domain

import "time"

// AgendaSettings tenant-level agenda policy
type AgendaSettings struct {
	CompanyID              string
	AllowOverbooking       bool
	LateCancelLimitMinutes int
	SuggestNextVisitDays   int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DefaultAgendaSettings returns the settings a new tenant starts with
func DefaultAgendaSettings(companyID string) *AgendaSettings {
	return &AgendaSettings{
		CompanyID:              companyID,
		AllowOverbooking:       DefaultAllowOverbooking,
		LateCancelLimitMinutes: DefaultLateCancelLimitMinutes,
		SuggestNextVisitDays:   DefaultSuggestNextVisitDays,
	}
}

// IsLateCancellation returns true if cancelAt is closer to start than the limit
func (s *AgendaSettings) IsLateCancellation(start, cancelAt time.Time) bool {
	return start.Sub(cancelAt) < time.Duration(s.LateCancelLimitMinutes)*time.Minute
}

// SuggestNextVisit returns the suggested date of the client's next visit
func (s *AgendaSettings) SuggestNextVisit(lastVisit time.Time) time.Time {
	return lastVisit.AddDate(0, 0, s.SuggestNextVisitDays)
}

// AgendaSettingsPatch partial settings update
type AgendaSettingsPatch struct {
	AllowOverbooking       *bool
	LateCancelLimitMinutes *int
	SuggestNextVisitDays   *int
}
