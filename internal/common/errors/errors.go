package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	// Generic
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Lifecycle preconditions
	ErrCodeAlreadyRunning    ErrorCode = "ALREADY_RUNNING"
	ErrCodeNoOngoingGiveaway ErrorCode = "NO_ONGOING_GIVEAWAY"

	// Eligibility gate denials
	ErrCodeBlacklisted    ErrorCode = "BLACKLISTED"
	ErrCodeNotMember      ErrorCode = "NOT_A_MEMBER"
	ErrCodeTooNew         ErrorCode = "TOO_NEW"
	ErrCodeNotAllowedRole ErrorCode = "NOT_ALLOWED_ROLE"
	ErrCodeAlreadyEntered ErrorCode = "ALREADY_ENTERED"

	// Blacklist administration
	ErrCodeAlreadyBlacklisted ErrorCode = "ALREADY_BLACKLISTED"
	ErrCodeNotBlacklisted     ErrorCode = "NOT_BLACKLISTED"

	// Winner delivery
	ErrCodeDeliveryFailure ErrorCode = "DELIVERY_FAILURE"

	// Infrastructure
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeExternalAPI   ErrorCode = "EXTERNAL_API_ERROR"
)

// AppError is a typed application error carried up to the front-end.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsDenial reports whether the error is an eligibility gate outcome.
func (e *AppError) IsDenial() bool {
	switch e.Code {
	case ErrCodeBlacklisted, ErrCodeNotMember, ErrCodeTooNew, ErrCodeNotAllowedRole, ErrCodeAlreadyEntered:
		return true
	}
	return false
}

// IsInternal reports whether the error comes from infrastructure rather than a rule.
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeExternalAPI
}

// WithContext adds a context key to the error.
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds a detail value to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates an application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewAlreadyRunningError(giveawayID string) *AppError {
	return New(ErrCodeAlreadyRunning, "There is an already ongoing giveaway").
		WithDetail("giveaway_id", giveawayID)
}

func NewNoOngoingGiveawayError() *AppError {
	return New(ErrCodeNoOngoingGiveaway, "There is no ongoing giveaway")
}

func NewBlacklistedError(participantID string) *AppError {
	return New(ErrCodeBlacklisted, "Participant is blacklisted").
		WithDetail("participant_id", participantID)
}

func NewTooNewError(participantID string, tenureDays, minDays int) *AppError {
	return New(ErrCodeTooNew, fmt.Sprintf("Membership is too new: %d of %d days", tenureDays, minDays)).
		WithDetail("participant_id", participantID).
		WithDetail("tenure_days", tenureDays).
		WithDetail("min_days", minDays)
}

func NewNotMemberError(participantID string) *AppError {
	return New(ErrCodeNotMember, "You are not a member of this server").
		WithDetail("participant_id", participantID)
}

func NewNotAllowedRoleError(participantID string) *AppError {
	return New(ErrCodeNotAllowedRole, "You are not allowed to participate").
		WithDetail("participant_id", participantID)
}

func NewAlreadyEnteredError(participantID, giveawayID string) *AppError {
	return New(ErrCodeAlreadyEntered, "You are already participating").
		WithDetail("participant_id", participantID).
		WithDetail("giveaway_id", giveawayID)
}

func NewDeliveryFailureError(participantID string, err error) *AppError {
	return Wrap(err, ErrCodeDeliveryFailure, "Failed to send message to winner").
		WithDetail("participant_id", participantID)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewExternalAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeExternalAPI, fmt.Sprintf("Membership provider call failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

// AsAppError finds the first AppError in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
