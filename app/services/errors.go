package services

import "errors"

// Provider error constants
var (
	ErrProviderNotConfigured = errors.New("provider is not configured")
	ErrProviderUnavailable   = errors.New("provider is temporarily unavailable")
	ErrFareNotFound          = errors.New("no fare offer found")
	ErrPhotoNotFound         = errors.New("no photo found")
	ErrEmptyEmbedding        = errors.New("provider returned an empty embedding")
)

// isExpectedMiss reports whether err is an answer from the provider rather than a failure of it
func isExpectedMiss(err error) bool {
	return errors.Is(err, ErrFareNotFound) || errors.Is(err, ErrPhotoNotFound) || errors.Is(err, ErrProviderNotConfigured)
}
