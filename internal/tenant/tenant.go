package tenant

import (
	"context"
	"errors"
)

// ErrNoTenant возвращается, когда в контексте нет компании
var ErrNoTenant = errors.New("tenant: company not resolved")

type companyKey struct{}

// WithCompanyID кладет идентификатор компании в контекст
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyKey{}, companyID)
}

// CompanyIDFromContext возвращает компанию текущего запроса
func CompanyIDFromContext(ctx context.Context) (string, error) {
	companyID, ok := ctx.Value(companyKey{}).(string)
	if !ok || companyID == "" {
		return "", ErrNoTenant
	}
	return companyID, nil
}
