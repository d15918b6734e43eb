// FilePath: server/analytics/internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeInvalidMetric    ErrorType = "invalid_metric"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypeInvalidRequest   ErrorType = "invalid_request"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeRepository       ErrorType = "repository"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeUnavailable      ErrorType = "service_unavailable"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// InvalidMetricDetails is attached to invalid metric errors
type InvalidMetricDetails struct {
	Metric           string   `json:"metric"`
	SupportedMetrics []string `json:"supported_metrics"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewInvalidMetricError creates an error for a metric outside the supported set
func NewInvalidMetricError(metric string, supported []string) *APIError {
	msg := fmt.Sprintf("metric '%s' is not supported", metric)
	if len(supported) > 0 {
		msg += ". Supported metrics: " + strings.Join(supported, ", ")
	}
	return &APIError{
		Type:    ErrorTypeInvalidMetric,
		Message: msg,
		Code:    http.StatusBadRequest,
		Details: InvalidMetricDetails{Metric: metric, SupportedMetrics: supported},
	}
}

// NewInsufficientDataError creates an error for a request without usable data
func NewInsufficientDataError(msg string) *APIError {
	return &APIError{
		Type:    ErrorTypeInsufficientData,
		Message: msg,
		Code:    http.StatusNotFound,
	}
}

// NewInvalidRequestError creates an error for a request rejected before any data access
func NewInvalidRequestError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewRepositoryError creates an error for a failing data source
func NewRepositoryError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeRepository,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewUnavailableError creates a new service unavailable error
func NewUnavailableError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUnavailable,
		Message: msg,
		Code:    http.StatusServiceUnavailable,
		err:     err,
	}
}

// AsAPIError finds the first APIError in the chain
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// TypeOf returns the error type, or internal for foreign errors
func TypeOf(err error) ErrorType {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Type
	}
	return ErrorTypeInternal
}

func isType(err error, t ErrorType) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Type == t
}

// IsInvalidMetric checks if an error is an InvalidMetric error
func IsInvalidMetric(err error) bool {
	return isType(err, ErrorTypeInvalidMetric)
}

// IsInsufficientData checks if an error is an InsufficientData error
func IsInsufficientData(err error) bool {
	return isType(err, ErrorTypeInsufficientData)
}

// IsInvalidRequest checks if an error is an InvalidRequest error
func IsInvalidRequest(err error) bool {
	return isType(err, ErrorTypeInvalidRequest)
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsRepository checks if an error is a Repository error
func IsRepository(err error) bool {
	return isType(err, ErrorTypeRepository)
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}
