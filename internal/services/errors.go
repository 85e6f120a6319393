// Package services provides the business logic layer between handlers and the
// topology, admission and dispatch packages.
package services

import (
	"errors"
	"fmt"
)

// Service error codes
const (
	CodeSnapshotUnavailable = "SNAPSHOT_UNAVAILABLE"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnknownOperation    = "UNKNOWN_OPERATION"
	CodeSeriesNotFound      = "SERIES_NOT_FOUND"
	CodeInvalidInterval     = "INVALID_INTERVAL"
	CodeInvalidScope        = "INVALID_SCOPE"
	CodeNodeNotFound        = "NODE_NOT_FOUND"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrRefreshSuperseded is returned by a refresh that lost to a newer one.
// Its result is discarded.
var ErrRefreshSuperseded = errors.New("refresh superseded by a newer tick")

// ErrNoSnapshot is returned when no refresh has completed yet
var ErrNoSnapshot = NewServiceError(CodeSnapshotUnavailable, "no topology snapshot available yet")

// CollaboratorError wraps a failure of an external collaborator
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
