package domain

import "errors"

// Error classes shared by the dispatch endpoint and the conversational flow.
// Callers wrap them with context and test with errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrPersistence     = errors.New("persistence error")
	ErrUpstream        = errors.New("upstream error")
	ErrDelivery        = errors.New("delivery error")
)

// ErrorCode returns the machine-readable class of err, or "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrDelivery):
		return "delivery_error"
	default:
		return "internal"
	}
}
