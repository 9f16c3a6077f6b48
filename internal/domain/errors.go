package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrLimitExceeded indicates a plan quota was reached.
type ErrLimitExceeded struct {
	LimitType string
	Limit     int
	Current   int
}

func (e *ErrLimitExceeded) Error() string {
	return fmt.Sprintf("limit exceeded [%s]: limit=%d current=%d", e.LimitType, e.Limit, e.Current)
}

// ErrFeatureLocked indicates the tenant's plan does not include a feature.
type ErrFeatureLocked struct {
	Feature string
	Plan    PlanType
}

func (e *ErrFeatureLocked) Error() string {
	return fmt.Sprintf("feature %q is not available on plan %q", e.Feature, e.Plan)
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate slug).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrUnsavedChanges is returned when switching the item being edited would
// discard a dirty draft without confirmation.
type ErrUnsavedChanges struct {
	ItemID string
}

func (e *ErrUnsavedChanges) Error() string {
	return fmt.Sprintf("item %s has unsaved changes; confirm discard to continue", e.ItemID)
}

// ErrPartialSave reports a multi-step save in which some child collections
// were committed and others failed. Committed steps are not rolled back.
type ErrPartialSave struct {
	Committed []string
	Failed    map[string]error
}

func (e *ErrPartialSave) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("partial save: failed [%s], committed [%s]",
		strings.Join(names, ", "), strings.Join(e.Committed, ", "))
}

// ErrLogoUnavailable indicates the avatar could not be embedded in a QR code.
type ErrLogoUnavailable struct {
	Err error
}

func (e *ErrLogoUnavailable) Error() string {
	return "não foi possível incorporar a logo central no QR code; remova a logo central e tente novamente"
}

func (e *ErrLogoUnavailable) Unwrap() error {
	return e.Err
}
