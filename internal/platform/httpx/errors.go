package httpx

import (
	"errors"
	"net/http"

	"github.com/aegis-iam/aegis/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Cross-tenant
// violations deliberately share the not-found shape so tenant-scoped callers
// cannot enumerate entities outside their boundary.
func RespondError(w http.ResponseWriter, err error) {
	var unknown *shared.UnknownPermissionCodeError
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrCrossTenant):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.As(err, &unknown):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Unknown Permission Codes",
			Status: http.StatusBadRequest,
			Detail: unknown.Error(),
			Codes:  unknown.Codes,
		})
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrNoTenant):
		Problem(w, http.StatusBadRequest, "Validation Failed", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
