package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/psqlbuilder"
)

const table = "appointments"

var columns = []string{
	"id",
	"company_id",
	"professional_id",
	"client_id",
	"services",
	"start_at",
	"end_at",
	"status",
	"overbooked",
	"notes",
	"client_name",
	"professional_name",
	"deleted_at",
	"created_at",
	"updated_at",
}

// Repository хранилище записей агенды. Все запросы ограничены компанией
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertAppointment сохраняет новую запись
// Если в контексте передана активная транзакция, использует её
func (r *Repository) InsertAppointment(ctx context.Context, a *domain.Appointment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	services, err := encodeServices(a.Services)
	if err != nil {
		return fmt.Errorf("%w: InsertAppointment - encode services: %v", ErrEncode, err)
	}

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"company_id",
			"professional_id",
			"client_id",
			"services",
			"start_at",
			"end_at",
			"status",
			"overbooked",
			"notes",
			"client_name",
			"professional_name",
			"created_at",
			"updated_at",
		).
		Values(
			a.ID,
			a.CompanyID,
			a.ProfessionalID,
			a.ClientID,
			services,
			a.StartAt,
			a.EndAt,
			a.Status,
			a.Overbooked,
			a.Notes,
			a.ClientName,
			a.ProfessionalName,
			a.CreatedAt,
			a.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: InsertAppointment - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return wrapExec(ErrExecQuery, "InsertAppointment - execute insert", err)
	}
	return nil
}

// UpdateAppointment применяет частичное обновление
// Денормализованное имя профессионала обновляется вместе с professional_id
func (r *Repository) UpdateAppointment(ctx context.Context, companyID, id string, patch domain.AppointmentPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(table).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"company_id": companyID, "id": id})

	if patch.ProfessionalID != nil {
		builder = builder.
			Set("professional_id", *patch.ProfessionalID).
			Set("professional_name", squirrel.Expr(
				"COALESCE((SELECT name FROM professionals WHERE id = ? AND company_id = ?), professional_name)",
				*patch.ProfessionalID, companyID,
			))
	}
	if patch.ClearSchedule {
		builder = builder.Set("start_at", nil).Set("end_at", nil)
	} else {
		if patch.StartAt != nil {
			builder = builder.Set("start_at", *patch.StartAt)
		}
		if patch.EndAt != nil {
			builder = builder.Set("end_at", *patch.EndAt)
		}
	}
	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.Overbooked != nil {
		builder = builder.Set("overbooked", *patch.Overbooked)
	}
	if patch.ClearDeletedAt {
		builder = builder.Set("deleted_at", nil)
	} else if patch.DeletedAt != nil {
		builder = builder.Set("deleted_at", *patch.DeletedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateAppointment - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapExec(ErrExecQuery, "UpdateAppointment - execute update", err)
	}
	return checkAffected(result, "UpdateAppointment")
}

// SoftDeleteAppointment помечает запись удаленной
func (r *Repository) SoftDeleteAppointment(ctx context.Context, companyID, id string, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("deleted_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"company_id": companyID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SoftDeleteAppointment - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapExec(ErrExecQuery, "SoftDeleteAppointment - execute update", err)
	}
	return checkAffected(result, "SoftDeleteAppointment")
}

// GetAppointment получает запись по ID, включая удаленные
func (r *Repository) GetAppointment(ctx context.Context, companyID, id string) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"company_id": companyID, "id": id})

	// Внутри транзакции блокируем строку до конца операции
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAppointment - build select query: %v", ErrBuildQuery, err)
	}

	var row appointmentRow
	err = executor.QueryRowContext(ctx, query, args...).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, wrapExec(ErrScanRow, "GetAppointment - scan appointment", err)
	}

	a, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAppointment - decode services: %v", ErrScanRow, err)
	}
	return a, nil
}

// LoadDayAppointments возвращает записи дня [from, to) и все активные walk-in записи
func (r *Repository) LoadDayAppointments(ctx context.Context, companyID string, from, to time.Time) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"company_id": companyID, "deleted_at": nil}).
		Where(squirrel.Or{
			squirrel.And{
				squirrel.GtOrEq{"start_at": from},
				squirrel.Lt{"start_at": to},
			},
			squirrel.And{
				squirrel.Eq{"start_at": nil},
				squirrel.Eq{"status": []string{string(domain.StatusScheduled), string(domain.StatusInProgress)}},
			},
		}).
		OrderBy("start_at ASC NULLS LAST", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: LoadDayAppointments - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "LoadDayAppointments", query, args)
}

// ListDeleted возвращает удаленные записи компании начиная с since
func (r *Repository) ListDeleted(ctx context.Context, companyID string, since time.Time) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.NotEq{"deleted_at": nil}).
		Where(squirrel.GtOrEq{"deleted_at": since}).
		OrderBy("deleted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDeleted - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListDeleted", query, args)
}

// PurgeDeleted окончательно удаляет записи, удаленные раньше before (по всем компаниям)
func (r *Repository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Lt{"deleted_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: PurgeDeleted - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapExec(ErrExecQuery, "PurgeDeleted - execute delete", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: PurgeDeleted - rows affected: %v", ErrExecQuery, err)
	}
	return purged, nil
}

// RecentClients возвращает клиентов, обслуженных другими профессионалами начиная с since,
// последние визиты первыми
func (r *Repository) RecentClients(ctx context.Context, companyID, excludeProfessionalID string, since time.Time, limit int) ([]*domain.RecentClient, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("c.id", "c.name", "c.phone", "MAX(a.start_at) AS last_visit_at").
		From(table+" a").
		Join("clients c ON c.id = a.client_id AND c.company_id = a.company_id").
		Where(squirrel.Eq{"a.company_id": companyID, "a.status": domain.StatusDone, "a.deleted_at": nil}).
		Where(squirrel.NotEq{"a.professional_id": excludeProfessionalID}).
		Where(squirrel.GtOrEq{"a.start_at": since}).
		GroupBy("c.id", "c.name", "c.phone").
		OrderBy("last_visit_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: RecentClients - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec(ErrExecQuery, "RecentClients - execute query", err)
	}
	defer rows.Close()

	clients := make([]*domain.RecentClient, 0)
	for rows.Next() {
		var c domain.RecentClient
		var phone sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &phone, &c.LastVisitAt); err != nil {
			return nil, fmt.Errorf("%w: RecentClients - scan client: %v", ErrScanRow, err)
		}
		c.Phone = nullString(phone)
		clients = append(clients, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapExec(ErrScanRow, "RecentClients - rows iteration", err)
	}
	return clients, nil
}

func (r *Repository) query(ctx context.Context, executor DBExecutor, method, query string, args []interface{}) ([]*domain.Appointment, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapExec(ErrExecQuery, method+" - execute query", err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		var row appointmentRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("%w: %s - scan appointment: %v", ErrScanRow, method, err)
		}
		a, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: %s - decode services: %v", ErrScanRow, method, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapExec(ErrScanRow, method+" - rows iteration", err)
	}
	return appointments, nil
}

func checkAffected(result sql.Result, method string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, method, err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// wrapExec отделяет недоступность базы и отказ по пересечению от прочих ошибок
func wrapExec(sentinel error, step string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), dbmetrics.IsConnectionError(err):
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, step, err)
	case dbmetrics.IsExclusionViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrSlotTaken, step, err)
	default:
		return fmt.Errorf("%w: %s: %v", sentinel, step, err)
	}
}
