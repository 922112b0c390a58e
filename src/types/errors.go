package types

import "net/http"

type ErrorKind string

const (
	ERROR_NOT_FOUND       ErrorKind = "not_found"
	ERROR_FORBIDDEN       ErrorKind = "forbidden"
	ERROR_INVALID_INPUT   ErrorKind = "invalid_input"
	ERROR_INVALID_STATE   ErrorKind = "invalid_state"
	ERROR_CONFLICT        ErrorKind = "conflict"
	ERROR_PAYMENT_FAILED  ErrorKind = "payment_failed"
	ERROR_UNAUTHENTICATED ErrorKind = "unauthenticated"
	ERROR_EXTERNAL        ErrorKind = "external_service_error"
)

// APIError carries an error category alongside the message so the HTTP
// layer can map domain failures to status codes in one place.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(kind ErrorKind, message string) *APIError {
	return &APIError{Kind: kind, Message: message}
}

func (e *APIError) StatusCode() int {
	switch e.Kind {
	case ERROR_NOT_FOUND:
		return http.StatusNotFound
	case ERROR_FORBIDDEN:
		return http.StatusForbidden
	case ERROR_INVALID_INPUT, ERROR_INVALID_STATE:
		return http.StatusBadRequest
	case ERROR_CONFLICT:
		return http.StatusConflict
	case ERROR_PAYMENT_FAILED:
		return http.StatusPaymentRequired
	case ERROR_UNAUTHENTICATED:
		return http.StatusUnauthorized
	case ERROR_EXTERNAL:
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
