package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

const (
	msgNoTenant            = "не указана компания"
	msgValidation          = "некорректные данные запроса"
	msgInvalidTransition   = "запись в терминальном статусе нельзя изменить"
	msgAppointmentNotFound = "запись не найдена"
	msgNotDeleted          = "запись не находится в корзине"
	msgRetentionExpired    = "срок хранения записи в корзине истек"
	msgOffline             = "нет связи с хранилищем, операция недоступна"
	msgPersistence         = "хранилище отклонило изменение, агенда восстановлена"
)

// ServiceResponse услуга в составе записи
type ServiceResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
}

// AppointmentResponse запись агенды
type AppointmentResponse struct {
	ID               string            `json:"id"`
	ProfessionalID   string            `json:"professionalId"`
	ProfessionalName string            `json:"professionalName,omitempty"`
	ClientID         *string           `json:"clientId,omitempty"`
	ClientName       *string           `json:"clientName,omitempty"`
	Services         []ServiceResponse `json:"services"`
	StartAt          *time.Time        `json:"startAt"`
	EndAt            *time.Time        `json:"endAt"`
	Status           string            `json:"status"`
	Overbooked       bool              `json:"overbooked"`
	Notes            *string           `json:"notes,omitempty"`
	DeletedAt        *time.Time        `json:"deletedAt,omitempty"`
}

// ResolutionRequest решение пользователя по конфликту
type ResolutionRequest struct {
	Choice      string   `json:"choice"`
	DisplaceIDs []string `json:"displaceIds,omitempty"`
}

// WaitlistEntryResponse запись листа ожидания
type WaitlistEntryResponse struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"clientId"`
	ClientName       string     `json:"clientName"`
	ClientPhone      *string    `json:"clientPhone,omitempty"`
	ProfessionalID   *string    `json:"professionalId"`
	ProfessionalName *string    `json:"professionalName,omitempty"`
	DesiredDate      *string    `json:"desiredDate,omitempty"`
	Priority         string     `json:"priority"`
	Position         int        `json:"position"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
}

// RecentClientResponse недавний клиент другого профессионала
type RecentClientResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       *string   `json:"phone,omitempty"`
	LastVisitAt time.Time `json:"lastVisitAt"`
}

// SuggestionsResponse кандидаты на освободившееся время
type SuggestionsResponse struct {
	Waitlist      []WaitlistEntryResponse `json:"waitlist"`
	RecentClients []RecentClientResponse  `json:"recentClients"`
}

// MutationResponse результат мутации агенды
type MutationResponse struct {
	Outcome            string                `json:"outcome"`
	State              string                `json:"state,omitempty"`
	Appointment        *AppointmentResponse  `json:"appointment,omitempty"`
	Conflict           *AppointmentResponse  `json:"conflict,omitempty"`
	Displaced          []AppointmentResponse `json:"displaced,omitempty"`
	LateCancellation   bool                  `json:"lateCancellation,omitempty"`
	SuggestedNextVisit *string               `json:"suggestedNextVisit,omitempty"`
	Suggestions        *SuggestionsResponse  `json:"suggestions,omitempty"`
}

// ToResolution конвертирует решение в модель пайплайна
func (r *ResolutionRequest) ToResolution() *pipeline.Resolution {
	if r == nil {
		return nil
	}
	return &pipeline.Resolution{
		Choice:      pipeline.Choice(r.Choice),
		DisplaceIDs: r.DisplaceIDs,
	}
}

// FromAppointment конвертирует запись в HTTP модель
func FromAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}
	services := make([]ServiceResponse, len(a.Services))
	for i, s := range a.Services {
		services[i] = ServiceResponse{ID: s.ID, Name: s.Name, DurationMinutes: s.DurationMinutes}
	}
	return &AppointmentResponse{
		ID:               a.ID,
		ProfessionalID:   a.ProfessionalID,
		ProfessionalName: a.ProfessionalName,
		ClientID:         a.ClientID,
		ClientName:       a.ClientName,
		Services:         services,
		StartAt:          a.StartAt,
		EndAt:            a.EndAt,
		Status:           string(a.Status),
		Overbooked:       a.Overbooked,
		Notes:            a.Notes,
		DeletedAt:        a.DeletedAt,
	}
}

// FromAppointments конвертирует список записей
func FromAppointments(list []*domain.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, *FromAppointment(a))
	}
	return out
}

// FromWaitlistEntry конвертирует запись листа ожидания
func FromWaitlistEntry(e *domain.WaitlistEntry) WaitlistEntryResponse {
	resp := WaitlistEntryResponse{
		ID:               e.ID,
		ClientID:         e.ClientID,
		ClientName:       e.ClientName,
		ClientPhone:      e.ClientPhone,
		ProfessionalID:   e.ProfessionalID,
		ProfessionalName: e.ProfessionalName,
		Priority:         string(e.Priority),
		Position:         e.Position,
		Notes:            e.Notes,
	}
	if e.DesiredDate != nil {
		date := e.DesiredDate.Format(domain.DateFormat)
		resp.DesiredDate = &date
	}
	if !e.CreatedAt.IsZero() {
		createdAt := e.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

// FromWaitlist конвертирует лист ожидания
func FromWaitlist(list []*domain.WaitlistEntry) []WaitlistEntryResponse {
	out := make([]WaitlistEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, FromWaitlistEntry(e))
	}
	return out
}

// FromSuggestions конвертирует кандидатов на слот
func FromSuggestions(s *domain.SlotSuggestions) *SuggestionsResponse {
	if s == nil {
		return nil
	}
	resp := &SuggestionsResponse{
		Waitlist:      FromWaitlist(s.Waitlist),
		RecentClients: make([]RecentClientResponse, 0, len(s.RecentClients)),
	}
	for _, c := range s.RecentClients {
		resp.RecentClients = append(resp.RecentClients, RecentClientResponse{
			ID:          c.ID,
			Name:        c.Name,
			Phone:       c.Phone,
			LastVisitAt: c.LastVisitAt,
		})
	}
	return resp
}

// FromResult конвертирует результат мутации
func FromResult(r *pipeline.Result) *MutationResponse {
	resp := &MutationResponse{
		Outcome:          string(r.Outcome),
		State:            string(r.State),
		Appointment:      FromAppointment(r.Appointment),
		Conflict:         FromAppointment(r.Conflict),
		LateCancellation: r.LateCancellation,
		Suggestions:      FromSuggestions(r.Suggestions),
	}
	if len(r.Displaced) > 0 {
		resp.Displaced = FromAppointments(r.Displaced)
	}
	if r.SuggestedNextVisit != nil {
		date := r.SuggestedNextVisit.Format(domain.DateFormat)
		resp.SuggestedNextVisit = &date
	}
	return resp
}

// RespondResult пишет результат мутации: 409 для непримененного размещения
func RespondResult(w http.ResponseWriter, successStatus int, r *pipeline.Result) {
	if !r.Applied() {
		RespondJSON(w, http.StatusConflict, FromResult(r))
		return
	}
	RespondJSON(w, successStatus, FromResult(r))
}

// RespondPipelineError сопоставляет ошибки пайплайна HTTP статусам.
// Возвращает false для неизвестных ошибок, которые нужно залогировать как внутренние
func RespondPipelineError(w http.ResponseWriter, err error) bool {
	var validationErr *pipeline.ValidationError

	switch {
	case errors.Is(err, tenant.ErrNoTenant):
		RespondError(w, http.StatusUnauthorized, msgNoTenant)
	case errors.Is(err, pipeline.ErrInvalidTransition):
		RespondFieldError(w, "status", msgInvalidTransition)
	case errors.As(err, &validationErr):
		RespondFieldError(w, validationErr.Field, msgValidation+": "+validationErr.Reason)
	case errors.Is(err, pipeline.ErrAppointmentNotFound):
		RespondNotFound(w, msgAppointmentNotFound)
	case errors.Is(err, pipeline.ErrNotDeleted):
		RespondError(w, http.StatusConflict, msgNotDeleted)
	case errors.Is(err, pipeline.ErrRetentionExpired):
		RespondError(w, http.StatusGone, msgRetentionExpired)
	case errors.Is(err, pipeline.ErrOfflineConversion), errors.Is(err, pipeline.ErrStoreUnavailable):
		RespondError(w, http.StatusServiceUnavailable, msgOffline)
	case errors.Is(err, pipeline.ErrPersistence):
		RespondError(w, http.StatusBadGateway, msgPersistence)
	default:
		RespondInternalError(w)
		return false
	}
	return true
}
