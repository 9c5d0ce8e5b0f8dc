package waitlist

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
)

// AddRequest данные новой записи листа ожидания
type AddRequest struct {
	ClientID       string
	ProfessionalID *string
	DesiredDate    *time.Time
	Priority       domain.WaitlistPriority // пусто = normal
	Notes          *string
}
