package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeUnauthenticated ErrorType = "UNAUTHENTICATED"
	ErrorTypeForbidden       ErrorType = "FORBIDDEN"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeInternal        ErrorType = "INTERNAL_ERROR"
	ErrorTypeUpstream        ErrorType = "UPSTREAM_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidWeek      ErrorCode = "INVALID_WEEK_ENDING"
	ErrCodeFileMissing      ErrorCode = "FILE_MISSING"
	ErrCodeFileNotPDF       ErrorCode = "FILE_NOT_PDF"
	ErrCodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"

	ErrCodeReportNotFound      ErrorCode = "REPORT_NOT_FOUND"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeAlreadyFinalized    ErrorCode = "ALREADY_FINALIZED"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeHasDependentReports ErrorCode = "HAS_DEPENDENT_REPORTS"

	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserExists           ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeDepartmentNotFound   ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeDepartmentExists     ErrorCode = "DEPARTMENT_ALREADY_EXISTS"
	ErrCodeHeadConflict         ErrorCode = "HEAD_ALREADY_ASSIGNED"
	ErrCodeDepartmentInUse      ErrorCode = "DEPARTMENT_IN_USE"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    ErrorCode = "ACCOUNT_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type FieldErrors struct {
	Errors []FieldError `json:"errors"`
}

func (fe FieldErrors) Summary() string {
	messages := make([]string, len(fe.Errors))
	for i, err := range fe.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewFieldValidationError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: FieldErrors{
			Errors: []FieldError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthenticatedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthenticated,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewUpstreamTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUpstream,
		Code:       ErrCodeUpstreamTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

var (
	ErrReportNotFound    = NewNotFoundError("report not found", ErrCodeReportNotFound)
	ErrInvalidTransition = NewValidationError("report status does not allow this transition", ErrCodeInvalidTransition)
	ErrAlreadyFinalized  = NewConflictError("report has already been finalized", ErrCodeAlreadyFinalized)
	ErrForbidden         = NewForbiddenError("insufficient permissions for this action", ErrCodeForbidden)

	ErrUserNotFound        = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrUserExists          = NewConflictError("user already exists", ErrCodeUserExists)
	ErrHasDependentReports = NewConflictError("cannot delete user with existing reports", ErrCodeHasDependentReports)

	ErrDepartmentNotFound   = NewNotFoundError("department not found", ErrCodeDepartmentNotFound)
	ErrDepartmentExists     = NewConflictError("department already exists", ErrCodeDepartmentExists)
	ErrHeadAlreadyAssigned  = NewConflictError("head of department is already assigned to another department", ErrCodeHeadConflict)
	ErrNotificationNotFound = NewNotFoundError("notification not found", ErrCodeNotificationNotFound)

	ErrInvalidCredentials = NewUnauthenticatedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrAccountInactive    = NewForbiddenError("user account is inactive", ErrCodeAccountInactive)
	ErrInvalidToken       = NewUnauthenticatedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthenticatedError("token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
