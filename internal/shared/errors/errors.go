package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal error")
	ErrValidation        = errors.New("validation error")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyAssigned   = errors.New("already assigned")
	ErrConfiguration     = errors.New("configuration error")
	ErrUpload            = errors.New("upload failed")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PermissionDenied creates a forbidden error for a caller whose role
// does not allow the attempted operation
func PermissionDenied(message string) *AppError {
	return &AppError{
		Err:        ErrPermissionDenied,
		Message:    message,
		Code:       "PERMISSION_DENIED",
		HTTPStatus: http.StatusForbidden,
	}
}

// JurisdictionNotAssigned reports a caller whose role requires a
// jurisdiction attribute (zila, tehsil, committee or council) that is
// missing from their account
func JurisdictionNotAssigned(attribute string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    fmt.Sprintf("no %s assigned to this account", attribute),
		Code:       "JURISDICTION_NOT_ASSIGNED",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"attribute": attribute},
	}
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation creates a validation error with field details
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// InvalidTransition reports a status change whose source status does not
// permit the requested target status
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Err:        ErrInvalidTransition,
		Message:    fmt.Sprintf("cannot move complaint from %s to %s", from, to),
		Code:       "INVALID_TRANSITION",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"from": from, "to": to},
	}
}

// AlreadyAssigned reports an assignment attempt on a complaint that
// already has an assignee
func AlreadyAssigned(assigneeID string) *AppError {
	return &AppError{
		Err:        ErrAlreadyAssigned,
		Message:    "complaint is already assigned",
		Code:       "ALREADY_ASSIGNED",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"assigned_to": assigneeID},
	}
}

// AlreadyInStatus reports a transition whose target status the complaint
// already holds
func AlreadyInStatus(status string) *AppError {
	return &AppError{
		Err:        ErrInvalidTransition,
		Message:    fmt.Sprintf("complaint is already %s", status),
		Code:       "ALREADY_IN_STATUS",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"status": status},
	}
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// Configuration reports missing seed data or broken deployment state,
// such as an absent role definition
func Configuration(message string) *AppError {
	return &AppError{
		Err:        ErrConfiguration,
		Message:    message,
		Code:       "CONFIGURATION_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Upload reports a failure while delegating a file to the attachment store
func Upload(err error) *AppError {
	return &AppError{
		Err:        ErrUpload,
		Message:    fmt.Sprintf("attachment upload failed: %v", err),
		Code:       "UPLOAD_ERROR",
		HTTPStatus: http.StatusBadGateway,
	}
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
