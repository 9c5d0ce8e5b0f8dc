package middleware

import (
	"net/http"
	"strings"

	"github.com/m04kA/SMC-AgendaService/internal/api/handlers"
	"github.com/m04kA/SMC-AgendaService/internal/tenant"
)

// CompanyIDHeader заголовок с идентификатором компании, выставляется шлюзом после аутентификации
const CompanyIDHeader = "X-Company-ID"

const msgMissingCompany = "не указан заголовок X-Company-ID"

// Tenant кладет компанию из заголовка в контекст запроса
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID := strings.TrimSpace(r.Header.Get(CompanyIDHeader))
		if companyID == "" {
			handlers.RespondError(w, http.StatusUnauthorized, msgMissingCompany)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenant.WithCompanyID(r.Context(), companyID)))
	})
}
