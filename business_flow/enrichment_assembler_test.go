package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichmentPlan() *models.Plan {
	return &models.Plan{
		ID:        1,
		Code:      "ABC123",
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
	}
}

func enrichmentRows() []models.SuggestedDestination {
	return []models.SuggestedDestination{
		{ID: 1, PlanID: 1, Position: 1, AirportCode: "LIS", City: "Lisbon", Country: "Portugal", PhotoURL: utils.ToPtr("https://img.example/stored.jpg")},
		{ID: 2, PlanID: 1, Position: 2, AirportCode: "BCN", City: "Barcelona", Country: "Spain"},
		{ID: 3, PlanID: 1, Position: 3, AirportCode: "FCO", City: "Rome", Country: "Italy", Likes: 4},
	}
}

func TestEnrichmentAssembler(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialFareFailureOnlyAffectsThatItem", func(t *testing.T) {
		photos := services.NewMockPhotoProvider()
		photos.Photos["Barcelona"] = "https://img.example/bcn.jpg"
		fares := services.NewMockFareProvider()
		fares.Fares["LIS"] = &services.Fare{Amount: "210.40", Currency: "EUR"}
		fares.Errors["BCN"] = services.ErrProviderUnavailable

		requester := &models.PlanMember{Email: "alice@example.com", HomeAirportCode: utils.ToPtr("JFK")}
		out := NewEnrichmentAssembler(photos, fares, 2, time.Second).Enrich(ctx, enrichmentPlan(), 3, enrichmentRows(), requester)

		require.Len(t, out, 3)
		assert.Equal(t, []string{"LIS", "BCN", "FCO"}, []string{out[0].AirportCode, out[1].AirportCode, out[2].AirportCode})

		require.NotNil(t, out[0].Price)
		assert.Equal(t, "210.40", out[0].Price.Amount)
		assert.Nil(t, out[1].Price)
		assert.Nil(t, out[2].Price)

		require.NotNil(t, out[0].PhotoURL)
		assert.Equal(t, "https://img.example/stored.jpg", *out[0].PhotoURL)
		require.NotNil(t, out[1].PhotoURL)
		assert.Equal(t, "https://img.example/bcn.jpg", *out[1].PhotoURL)
		assert.Nil(t, out[2].PhotoURL)
		assert.Equal(t, int64(4), out[2].Likes)

		// Stored photos are not looked up again
		assert.Equal(t, 2, photos.CallCount())
		assert.Equal(t, 3, fares.CallCount())
	})

	t.Run("FareQueryUsesPlanDatesAndPartySize", func(t *testing.T) {
		fares := services.NewMockFareProvider()
		requester := &models.PlanMember{HomeAirportCode: utils.ToPtr("jfk")}

		rows := enrichmentRows()[:1]
		NewEnrichmentAssembler(nil, fares, 1, time.Second).Enrich(ctx, enrichmentPlan(), 4, rows, requester)

		require.Len(t, fares.Calls, 1)
		q := fares.Calls[0]
		assert.Equal(t, "JFK", q.Origin)
		assert.Equal(t, "LIS", q.Destination)
		assert.Equal(t, "2026-06-01", utils.FormatDate(q.DepartureDate))
		assert.Equal(t, "2026-06-08", utils.FormatDate(q.ReturnDate))
		assert.Equal(t, 4, q.Adults)
	})

	t.Run("NoHomeAirportMeansNoPrice", func(t *testing.T) {
		fares := services.NewMockFareProvider()
		fares.Fares["LIS"] = &services.Fare{Amount: "99.00", Currency: "EUR"}

		for _, requester := range []*models.PlanMember{nil, {Email: "bob@example.com"}} {
			out := NewEnrichmentAssembler(nil, fares, 2, time.Second).Enrich(ctx, enrichmentPlan(), 2, enrichmentRows(), requester)
			for _, e := range out {
				assert.Nil(t, e.Price)
			}
		}
		assert.Zero(t, fares.CallCount())
	})

	t.Run("HomeAirportSuggestionIsNotPriced", func(t *testing.T) {
		fares := services.NewMockFareProvider()
		requester := &models.PlanMember{HomeAirportCode: utils.ToPtr("LIS")}

		NewEnrichmentAssembler(nil, fares, 2, time.Second).Enrich(ctx, enrichmentPlan(), 2, enrichmentRows(), requester)
		assert.Equal(t, 2, fares.CallCount())
	})

	t.Run("PhotoProviderFailureYieldsNil", func(t *testing.T) {
		photos := services.NewMockPhotoProvider()
		photos.Err = services.ErrProviderUnavailable

		out := NewEnrichmentAssembler(photos, nil, 2, time.Second).Enrich(ctx, enrichmentPlan(), 2, enrichmentRows(), nil)
		require.NotNil(t, out[0].PhotoURL)
		assert.Nil(t, out[1].PhotoURL)
		assert.Nil(t, out[2].PhotoURL)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		out := NewEnrichmentAssembler(nil, nil, 0, 0).Enrich(ctx, enrichmentPlan(), 0, nil, nil)
		assert.Empty(t, out)
	})
}
