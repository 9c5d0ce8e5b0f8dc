package waitlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/psqlbuilder"
)

const table = "waitlist w"

var columns = []string{
	"w.id", "w.company_id", "w.client_id", "w.professional_id", "w.desired_date",
	"w.priority", "w.position", "w.notes", "w.created_at",
	"c.name", "c.phone", "p.name",
}

// Repository репозиторий листа ожидания
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

func selectEntries() squirrel.SelectBuilder {
	return psqlbuilder.Select(columns...).
		From(table).
		LeftJoin("clients c ON c.id = w.client_id").
		LeftJoin("professionals p ON p.id = w.professional_id")
}

// List возвращает все записи листа ожидания компании
func (r *Repository) List(ctx context.Context, companyID string) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, "List", selectEntries().Where(squirrel.Eq{"w.company_id": companyID}))
}

// ListForProfessional возвращает записи, готовые к профессионалу, включая записи "любой профессионал"
func (r *Repository) ListForProfessional(ctx context.Context, companyID, professionalID string) ([]*domain.WaitlistEntry, error) {
	return r.list(ctx, "ListForProfessional", selectEntries().
		Where(squirrel.Eq{"w.company_id": companyID}).
		Where(squirrel.Or{
			squirrel.Eq{"w.professional_id": professionalID},
			squirrel.Eq{"w.professional_id": nil},
		}))
}

// Get получает запись по ID
func (r *Repository) Get(ctx context.Context, companyID, id string) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := selectEntries().Where(squirrel.Eq{"w.company_id": companyID, "w.id": id})
	// Внутри транзакции блокируем запись листа ожидания
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE OF w")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var row entryRow
	err = executor.QueryRowContext(ctx, query, args...).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan entry: %v", ErrScanRow, err)
	}
	return row.toDomain(), nil
}

// MaxPosition возвращает наибольшую позицию в листе компании, 0 для пустого листа
func (r *Repository) MaxPosition(ctx context.Context, companyID string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(position), 0)").
		From("waitlist").
		Where(squirrel.Eq{"company_id": companyID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: MaxPosition - build select query: %v", ErrBuildQuery, err)
	}

	var position int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
		return 0, fmt.Errorf("%w: MaxPosition - scan position: %v", ErrScanRow, err)
	}
	return position, nil
}

// Insert создает запись листа ожидания
func (r *Repository) Insert(ctx context.Context, e *domain.WaitlistEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("waitlist").
		Columns("id", "company_id", "client_id", "professional_id", "desired_date", "priority", "position", "notes", "created_at").
		Values(e.ID, e.CompanyID, e.ClientID, e.ProfessionalID, e.DesiredDate, string(e.Priority), e.Position, e.Notes, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

// Delete удаляет запись листа ожидания
func (r *Repository) Delete(ctx context.Context, companyID, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("waitlist").
		Where(squirrel.Eq{"company_id": companyID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// UpdatePositions присваивает позиции index+1 в порядке ids
func (r *Repository) UpdatePositions(ctx context.Context, companyID string, ids []string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	for i, id := range ids {
		query, args, err := psqlbuilder.Update("waitlist").
			Set("position", i+1).
			Where(squirrel.Eq{"company_id": companyID, "id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: UpdatePositions - build update query: %v", ErrBuildQuery, err)
		}
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: UpdatePositions - execute update id=%s: %v", ErrExecQuery, id, err)
		}
	}
	return nil
}

func (r *Repository) list(ctx context.Context, method string, builder squirrel.SelectBuilder) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, method, err)
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, method, err)
		}
		entries = append(entries, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %v", ErrScanRow, method, err)
	}
	return entries, nil
}
