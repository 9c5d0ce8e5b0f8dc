package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AgendaService/internal/domain"
	"github.com/m04kA/SMC-AgendaService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AgendaService/pkg/psqlbuilder"
)

const table = "agenda_settings"

var columns = []string{
	"company_id",
	"allow_overbooking",
	"late_cancel_limit_minutes",
	"suggest_next_visit_days",
	"created_at",
	"updated_at",
}

// Repository репозиторий настроек агенды компании
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает настройки компании
func (r *Repository) Get(ctx context.Context, companyID string) (*domain.AgendaSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"company_id": companyID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	settings, err := scanSettings(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan settings: %v", ErrScanRow, err)
	}
	return settings, nil
}

// GetOrCreate получает настройки компании, создавая строку со значениями по умолчанию при первом обращении
func (r *Repository) GetOrCreate(ctx context.Context, companyID string) (*domain.AgendaSettings, error) {
	settings, err := r.Get(ctx, companyID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)
	defaults := domain.DefaultAgendaSettings(companyID)

	// Параллельный запрос мог создать строку раньше, тогда вставка ничего не делает
	query, args, err := psqlbuilder.Insert(table).
		Columns("company_id", "allow_overbooking", "late_cancel_limit_minutes", "suggest_next_visit_days").
		Values(defaults.CompanyID, defaults.AllowOverbooking, defaults.LateCancelLimitMinutes, defaults.SuggestNextVisitDays).
		Suffix("ON CONFLICT (company_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: GetOrCreate - execute insert: %v", ErrExecQuery, err)
	}

	return r.Get(ctx, companyID)
}

// Update применяет частичное обновление настроек и возвращает результат
func (r *Repository) Update(ctx context.Context, companyID string, patch domain.AgendaSettingsPatch) (*domain.AgendaSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(table).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"company_id": companyID})
	if patch.AllowOverbooking != nil {
		builder = builder.Set("allow_overbooking", *patch.AllowOverbooking)
	}
	if patch.LateCancelLimitMinutes != nil {
		builder = builder.Set("late_cancel_limit_minutes", *patch.LateCancelLimitMinutes)
	}
	if patch.SuggestNextVisitDays != nil {
		builder = builder.Set("suggest_next_visit_days", *patch.SuggestNextVisitDays)
	}

	query, args, err := builder.Suffix("RETURNING " + strings.Join(columns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	settings, err := scanSettings(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}
	return settings, nil
}

func scanSettings(row *sql.Row) (*domain.AgendaSettings, error) {
	var s domain.AgendaSettings
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(
		&s.CompanyID,
		&s.AllowOverbooking,
		&s.LateCancelLimitMinutes,
		&s.SuggestNextVisitDays,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}
