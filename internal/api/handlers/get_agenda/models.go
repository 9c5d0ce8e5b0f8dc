package get_agenda

import (
	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
)

// AgendaResponse день агенды: записи по времени и очередь walk-in
type AgendaResponse struct {
	Date      string                         `json:"date"`
	Scheduled []handlers.AppointmentResponse `json:"scheduled"`
	WalkIns   []handlers.AppointmentResponse `json:"walkIns"`
}

func FromDayView(date string, view schedule.DayView) *AgendaResponse {
	return &AgendaResponse{
		Date:      date,
		Scheduled: handlers.FromAppointments(view.Scheduled),
		WalkIns:   handlers.FromAppointments(view.WalkIns),
	}
}
