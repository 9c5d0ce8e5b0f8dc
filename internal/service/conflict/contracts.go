package conflict

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/service/schedule"
)

// ScheduleReader источник агенды профессионала на день
type ScheduleReader interface {
	AppointmentsFor(companyID, professionalID string, day time.Time) schedule.DayView
}
