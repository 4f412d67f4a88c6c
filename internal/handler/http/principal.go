package http

import (
	"net/http"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contractor-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/contractor-backend-go/internal/handler/http/response"
)

// principalOrFail returns the authenticated caller or writes 401.
func principalOrFail(w http.ResponseWriter, r *http.Request) (user.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return user.Principal{}, false
	}
	return p, true
}
