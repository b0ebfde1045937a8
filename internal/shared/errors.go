package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a unique constraint violation on create.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated indicates no identity could be resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoTenant indicates no acting tenant could be determined.
	ErrNoTenant = errors.New("tenant not resolved")
	// ErrCrossTenant indicates an operation crossed a tenant boundary. Handlers
	// report it with the same shape as ErrNotFound so cross-tenant ids cannot be
	// told apart from missing ones.
	ErrCrossTenant = errors.New("cross-tenant access")
)

// UnknownPermissionCodeError reports permission codes that did not resolve to
// active catalog entries.
type UnknownPermissionCodeError struct {
	Codes []string
}

func (e *UnknownPermissionCodeError) Error() string {
	return fmt.Sprintf("unknown permission codes: %s", strings.Join(e.Codes, ", "))
}

// UserSafeMessage maps an error to a message that can be returned to API
// consumers without leaking internals or cross-tenant existence.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCrossTenant):
		return "resource not found"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrNoTenant):
		return "no acting tenant resolved for request"
	default:
		var unknown *UnknownPermissionCodeError
		if errors.As(err, &unknown) {
			return unknown.Error()
		}
		return "internal error"
	}
}
