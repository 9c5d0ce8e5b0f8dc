package convert_waitlist

import (
	"context"
	"errors"
	"fmt"

	waitlistRepo "github.com/m04kA/SMC-AgendaService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AgendaService/internal/service/pipeline"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
	"github.com/m04kA/SMC-AgendaService/pkg/ptr"
)

// UseCase use case для преобразования записи листа ожидания в запись агенды.
// Создание записи и удаление из листа выполняются в одной транзакции
type UseCase struct {
	creator      AppointmentCreator
	waitlistRepo WaitlistRepository
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(creator AppointmentCreator, waitlistRepo WaitlistRepository, logger Logger) *UseCase {
	return &UseCase{
		creator:      creator,
		waitlistRepo: waitlistRepo,
		logger:       logger,
	}
}

// Execute выполняет use case преобразования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*pipeline.Result, error) {
	companyID, err := tenant.CompanyIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("ConvertWaitlist: company=%s, entry=%s, services=%d", companyID, req.EntryID, len(req.ServiceIDs))

	// 1. Валидация входных данных
	if req.EntryID == "" {
		return nil, fmt.Errorf("%w: entryId is required", ErrInvalidInput)
	}

	// 2. Получаем запись листа ожидания
	entry, err := uc.waitlistRepo.Get(ctx, companyID, req.EntryID)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			uc.logger.Warn("ConvertWaitlist: entry=%s not found", req.EntryID)
			return nil, ErrEntryNotFound
		}
		uc.logger.Error("ConvertWaitlist: failed to get entry=%s: %v", req.EntryID, err)
		return nil, fmt.Errorf("%w: failed to get entry: %v", ErrInternal, err)
	}

	// 3. Профессионал из запроса или из предпочтения клиента
	professionalID := req.ProfessionalID
	if professionalID == "" && entry.ProfessionalID != nil {
		professionalID = *entry.ProfessionalID
	}
	if professionalID == "" {
		uc.logger.Warn("ConvertWaitlist: entry=%s has no professional preference", entry.ID)
		return nil, fmt.Errorf("%w: professionalId is required for entries without preference", ErrInvalidInput)
	}

	// 4. Создаем запись; удаление из листа выполняется в той же транзакции
	result, err := uc.creator.Create(ctx, &pipeline.CreateRequest{
		ProfessionalID: professionalID,
		ClientID:       ptr.Ptr(entry.ClientID),
		ClientName:     ptr.Ptr(entry.ClientName),
		ServiceIDs:     req.ServiceIDs,
		StartAt:        req.StartAt,
		Notes:          entry.Notes,
		Resolution:     req.Resolution,
		WithinTx: func(txCtx context.Context) error {
			// 4.1. Блокируем запись листа; параллельное преобразование ее уже удалило
			if _, err := uc.waitlistRepo.Get(txCtx, companyID, entry.ID); err != nil {
				return err
			}
			// 4.2. Удаляем запись из листа ожидания
			return uc.waitlistRepo.Delete(txCtx, companyID, entry.ID)
		},
	})
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			uc.logger.Warn("ConvertWaitlist: entry=%s was converted concurrently", entry.ID)
			return nil, ErrEntryNotFound
		}
		uc.logger.Warn("ConvertWaitlist: failed to create appointment for entry=%s: %v", entry.ID, err)
		return nil, err
	}

	if !result.Applied() {
		uc.logger.Info("ConvertWaitlist: entry=%s kept, placement outcome=%s", entry.ID, result.Outcome)
		return result, nil
	}

	uc.logger.Info("ConvertWaitlist: entry=%s converted to appointment=%s, state=%s",
		entry.ID, result.Appointment.ID, result.State)
	return result, nil
}
