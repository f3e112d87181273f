package businessflow

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/utils"
	"golang.org/x/sync/errgroup"
)

const (
	defaultEnrichmentConcurrency = 8
	defaultProviderCallTimeout   = 8 * time.Second
)

// EnrichedSuggestion is a persisted suggestion plus the live data shown with it.
// Nil PhotoURL or Price means unknown.
type EnrichedSuggestion struct {
	models.SuggestedDestination
	PhotoURL *string
	Price    *services.Fare
}

// EnrichmentAssembler attaches photos and live fares to a suggestion list
type EnrichmentAssembler interface {
	Enrich(ctx context.Context, plan *models.Plan, memberCount int, suggestions []models.SuggestedDestination, requester *models.PlanMember) []EnrichedSuggestion
}

// EnrichmentAssemblerImpl fans provider calls out over a bounded worker group
type EnrichmentAssemblerImpl struct {
	photos      services.PhotoProvider
	fares       services.FareProvider
	concurrency int
	callTimeout time.Duration
}

// NewEnrichmentAssembler creates an assembler. Either provider may be nil.
func NewEnrichmentAssembler(photos services.PhotoProvider, fares services.FareProvider, concurrency int, callTimeout time.Duration) EnrichmentAssembler {
	if concurrency <= 0 {
		concurrency = defaultEnrichmentConcurrency
	}
	if callTimeout <= 0 {
		callTimeout = defaultProviderCallTimeout
	}
	return &EnrichmentAssemblerImpl{
		photos:      photos,
		fares:       fares,
		concurrency: concurrency,
		callTimeout: callTimeout,
	}
}

// Enrich returns one entry per suggestion, in input order.
// A failed lookup leaves that entry's field nil and never affects the others.
func (a *EnrichmentAssemblerImpl) Enrich(ctx context.Context, plan *models.Plan, memberCount int, suggestions []models.SuggestedDestination, requester *models.PlanMember) []EnrichedSuggestion {
	out := make([]EnrichedSuggestion, len(suggestions))

	var origin string
	if requester != nil && requester.HomeAirportCode != nil {
		origin = utils.NormalizeAirportCode(*requester.HomeAirportCode)
	}
	adults := memberCount
	if adults < 1 {
		adults = 1
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i := range suggestions {
		s := suggestions[i]
		out[i] = EnrichedSuggestion{SuggestedDestination: s, PhotoURL: s.PhotoURL}

		g.Go(func() error {
			if out[i].PhotoURL == nil || *out[i].PhotoURL == "" {
				out[i].PhotoURL = lookupPhoto(ctx, a.photos, a.callTimeout, s.City, s.Country)
			}
			if origin != "" && origin != s.AirportCode {
				out[i].Price = a.lookupFare(ctx, services.FareQuery{
					Origin:        origin,
					Destination:   s.AirportCode,
					DepartureDate: plan.StartDate,
					ReturnDate:    plan.EndDate,
					Adults:        adults,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (a *EnrichmentAssemblerImpl) lookupFare(ctx context.Context, q services.FareQuery) *services.Fare {
	if a.fares == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	fare, err := a.fares.CheapestFare(callCtx, q)
	switch {
	case err == nil && fare != nil:
		enrichmentItemsTotal.WithLabelValues("price", "hit").Inc()
		return fare
	case err == nil, errors.Is(err, services.ErrFareNotFound), errors.Is(err, services.ErrProviderNotConfigured):
		enrichmentItemsTotal.WithLabelValues("price", "miss").Inc()
	default:
		enrichmentItemsTotal.WithLabelValues("price", "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).
			Str("origin", q.Origin).
			Str("destination", q.Destination).
			Msg("Fare lookup failed")
	}
	return nil
}

// lookupPhoto asks photos for a city photo under its own timeout; any failure yields nil
func lookupPhoto(ctx context.Context, photos services.PhotoProvider, timeout time.Duration, city, country string) *string {
	if photos == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url, err := photos.PhotoFor(callCtx, city, country)
	switch {
	case err == nil && url != "":
		enrichmentItemsTotal.WithLabelValues("photo", "hit").Inc()
		return &url
	case err == nil, errors.Is(err, services.ErrPhotoNotFound), errors.Is(err, services.ErrProviderNotConfigured):
		enrichmentItemsTotal.WithLabelValues("photo", "miss").Inc()
	default:
		enrichmentItemsTotal.WithLabelValues("photo", "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("city", city).Str("country", country).Msg("Photo lookup failed")
	}
	return nil
}
