// Package businessflow contains the core business logic and use cases of group trip planning
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/planeit/recommender"
)

// Business flow error constants
var (
	// Validation errors
	ErrInvalidVector     = recommender.ErrInvalidVector
	ErrInvalidDateFormat = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidDateRange  = errors.New("end date cannot be before start date")
	ErrEmptyAnswers      = errors.New("at least one quiz answer is required")
	ErrInvalidEmail      = errors.New("a member email is required")
	ErrPlanNameRequired  = errors.New("plan name is required")
	ErrPhotoQueryInvalid = errors.New("city and country are required")

	// Lookup errors
	ErrPlanNotFound        = errors.New("plan not found")
	ErrDestinationNotFound = errors.New("destination not found in plan suggestions")
	ErrMemberNotFound      = errors.New("member not found in plan")
	ErrPhotoNotFound       = errors.New("no photo found for destination")

	// Upstream errors
	ErrPreferencesUnavailable = errors.New("preference provider is unavailable")
	ErrCatalogNotReady        = errors.New("destination catalog has no embeddings")

	// Internal errors
	ErrPlanCodeExhausted = errors.New("could not allocate a unique plan code")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsInvalidVector(err error) bool {
	return errors.Is(err, ErrInvalidVector)
}

func IsInvalidDateFormat(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat)
}

func IsInvalidDateRange(err error) bool {
	return errors.Is(err, ErrInvalidDateRange)
}

func IsEmptyAnswers(err error) bool {
	return errors.Is(err, ErrEmptyAnswers)
}

func IsInvalidEmail(err error) bool {
	return errors.Is(err, ErrInvalidEmail)
}

func IsPlanNameRequired(err error) bool {
	return errors.Is(err, ErrPlanNameRequired)
}

func IsPlanNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound)
}

func IsDestinationNotFound(err error) bool {
	return errors.Is(err, ErrDestinationNotFound)
}

func IsMemberNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}

func IsPhotoNotFound(err error) bool {
	return errors.Is(err, ErrPhotoNotFound)
}

func IsPhotoQueryInvalid(err error) bool {
	return errors.Is(err, ErrPhotoQueryInvalid)
}

func IsPreferencesUnavailable(err error) bool {
	return errors.Is(err, ErrPreferencesUnavailable)
}

func IsCatalogNotReady(err error) bool {
	return errors.Is(err, ErrCatalogNotReady)
}

// IsValidationError reports whether err was caused by bad caller input
func IsValidationError(err error) bool {
	return IsInvalidVector(err) || IsInvalidDateFormat(err) || IsInvalidDateRange(err) ||
		IsEmptyAnswers(err) || IsInvalidEmail(err) || IsPlanNameRequired(err) ||
		IsPhotoQueryInvalid(err)
}

// ErrorCode returns the code carried by a BusinessError, or fallback
func ErrorCode(err error, fallback string) string {
	var be *BusinessError
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return fallback
}
