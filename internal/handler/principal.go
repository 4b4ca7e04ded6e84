package handler

import (
	"net/http"

	"clientvault/internal/middleware"
	"clientvault/internal/service"
	"clientvault/pkg/apierror"
)

func principalFromRequest(r *http.Request, auth *service.AuthService) (service.Principal, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Principal{}, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized)
	}

	return auth.PrincipalFor(claims), nil
}
