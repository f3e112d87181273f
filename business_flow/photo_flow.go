package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/app/services"
)

// PhotoFlow looks up a representative photo for a city
type PhotoFlow interface {
	GetPhoto(ctx context.Context, city, country string) (*dto.PhotoResponse, error)
}

type PhotoFlowImpl struct {
	photos services.PhotoProvider
}

func NewPhotoFlow(photos services.PhotoProvider) PhotoFlow {
	return &PhotoFlowImpl{photos: photos}
}

func (f *PhotoFlowImpl) GetPhoto(ctx context.Context, city, country string) (*dto.PhotoResponse, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" || country == "" {
		return nil, NewBusinessError("PHOTO_QUERY_INVALID", "City and country are required", ErrPhotoQueryInvalid)
	}
	if f.photos == nil {
		return nil, NewBusinessError("PHOTO_NOT_FOUND", "No photo found", ErrPhotoNotFound)
	}

	url, err := f.photos.PhotoFor(ctx, city, country)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPhotoNotFound), errors.Is(err, services.ErrProviderNotConfigured):
			return nil, NewBusinessError("PHOTO_NOT_FOUND", "No photo found", fmt.Errorf("%w: %w", ErrPhotoNotFound, err))
		default:
			return nil, NewBusinessError("PHOTO_PROVIDER_UNAVAILABLE", "Photo provider is unavailable", err)
		}
	}

	return &dto.PhotoResponse{City: city, Country: country, PhotoURL: url}, nil
}
