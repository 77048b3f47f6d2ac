package reservation

import "fmt"

// Service error codes. Every domain operation returns a *ServiceError
// instead of propagating panics or raw errors past the service boundary.
const (
	ErrValidation   = "VALIDATION_ERROR"
	ErrConflict     = "CONFLICT"
	ErrUnauthorized = "UNAUTHORIZED"
	ErrNotFound     = "NOT_FOUND"
	ErrIntegrity    = "INTEGRITY_ERROR"
	ErrInternal     = "INTERNAL_ERROR"
)

// ServiceError represents a domain operation failure.
type ServiceError struct {
	Code    string
	Message string
	Detail  string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

func validationError(message, detail string) *ServiceError {
	return &ServiceError{Code: ErrValidation, Message: message, Detail: detail}
}

func conflictError(message, detail string) *ServiceError {
	return &ServiceError{Code: ErrConflict, Message: message, Detail: detail}
}

func unauthorizedError(message, detail string) *ServiceError {
	return &ServiceError{Code: ErrUnauthorized, Message: message, Detail: detail}
}

func notFoundError(message, detail string) *ServiceError {
	return &ServiceError{Code: ErrNotFound, Message: message, Detail: detail}
}

func internalError(message, detail string) *ServiceError {
	return &ServiceError{Code: ErrInternal, Message: message, Detail: detail}
}
