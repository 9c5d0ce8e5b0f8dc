package pipeline

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

func validateCreate(req *CreateRequest) error {
	if req.ProfessionalID == "" {
		return invalid("professionalId", "required")
	}
	if len(req.ServiceIDs) == 0 {
		return invalid("serviceIds", "at least one service is required")
	}
	if len(req.ServiceIDs) > domain.MaxServicesPerAppointment {
		return invalid("serviceIds", fmt.Sprintf("at most %d services allowed", domain.MaxServicesPerAppointment))
	}
	for _, id := range req.ServiceIDs {
		if id == "" {
			return invalid("serviceIds", "empty service id")
		}
	}
	if err := validateStart(req.StartAt); err != nil {
		return err
	}
	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return invalid("notes", fmt.Sprintf("at most %d characters allowed", domain.MaxNotesLength))
	}
	return validateResolution(req.Resolution)
}

func validateMove(req *MoveRequest) error {
	if req.AppointmentID == "" {
		return invalid("appointmentId", "required")
	}
	if err := validateStart(req.StartAt); err != nil {
		return err
	}
	return validateResolution(req.Resolution)
}

func validateStatus(req *StatusRequest) error {
	if req.AppointmentID == "" {
		return invalid("appointmentId", "required")
	}
	if !req.Status.IsValid() {
		return invalid("status", fmt.Sprintf("unknown status %q", req.Status))
	}
	return nil
}

func validateStart(start *time.Time) error {
	if start != nil && start.IsZero() {
		return invalid("startAt", "malformed time")
	}
	return nil
}

func validateResolution(r *Resolution) error {
	if r == nil {
		return nil
	}
	if !r.Choice.IsValid() {
		return invalid("resolution.choice", fmt.Sprintf("unknown choice %q", r.Choice))
	}
	if r.Choice == ChoiceSubstitute && len(r.DisplaceIDs) == 0 {
		return invalid("resolution.displaceIds", "required for substitute")
	}
	return nil
}
