package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyIDFromContext(t *testing.T) {
	ctx := WithCompanyID(context.Background(), "company-1")

	companyID, err := CompanyIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "company-1", companyID)
}

func TestCompanyIDFromContext_Missing(t *testing.T) {
	_, err := CompanyIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoTenant)

	_, err = CompanyIDFromContext(WithCompanyID(context.Background(), ""))
	assert.ErrorIs(t, err, ErrNoTenant)
}
