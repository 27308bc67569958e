package domain

import "errors"

// Result is the coarse outcome of a mutating operation: an HTTP-like status
// code plus a human-readable message. Callers must not assume a wire
// protocol, only the categories.
type Result struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	StatusOK        = 200
	StatusNoContent = 204
	StatusForbidden = 403
	StatusNotFound  = 404
	StatusConflict  = 406
	StatusInternal  = 500
)

// IsError reports whether the result is a failure outcome.
func (r Result) IsError() bool { return r.Code >= 400 && r.Code < 600 }

// ResultFromError converts a domain error into a Result. Unrecognized errors
// are reported generically so no raw infrastructure error escapes.
func ResultFromError(err error) Result {
	switch {
	case err == nil:
		return Result{Code: StatusOK, Message: "OK"}
	case errors.Is(err, ErrUnauthorized):
		return Result{Code: StatusForbidden, Message: "Unauthorized"}
	case errors.Is(err, ErrForbidden):
		return Result{Code: StatusForbidden, Message: "No design rights"}
	case errors.Is(err, ErrNotFound):
		return Result{Code: StatusNotFound, Message: "Not found"}
	case errors.Is(err, ErrConflict):
		return Result{Code: StatusConflict, Message: err.Error()}
	default:
		return Result{Code: StatusInternal, Message: err.Error()}
	}
}
