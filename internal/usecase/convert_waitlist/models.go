package convert_waitlist

import (
	"time"

	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
)

// Request модель запроса на преобразование записи листа ожидания в запись агенды
type Request struct {
	EntryID        string               // ID записи листа ожидания
	ProfessionalID string               // Профессионал; пусто = предпочтение из листа ожидания
	ServiceIDs     []string             // Услуги в порядке выполнения
	StartAt        *time.Time           // Начало; nil = walk-in
	Resolution     *pipeline.Resolution // Решение по конфликту (опционально)
}
