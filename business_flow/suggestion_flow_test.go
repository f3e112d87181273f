package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionFlow_GetSuggestions(t *testing.T) {
	ctx := context.Background()

	newFlow := func(f *fixture, fares services.FareProvider) SuggestionFlow {
		photos := services.NewMockPhotoProvider()
		return NewSuggestionFlow(
			f.plans, f.members,
			newTestMaterializer(f, photos, 10),
			NewEnrichmentAssembler(photos, fares, 4, time.Second),
		)
	}

	t.Run("PendingUntilConsensus", func(t *testing.T) {
		f := newFixture()
		seedTrio(f)
		plan := f.addPlan("SUGG01")
		f.addMember(plan.ID, "alice@example.com", joined, []string{"LIS"})
		f.addMember(plan.ID, "bob@example.com", joined, nil)

		resp, err := newFlow(f, nil).GetSuggestions(ctx, "sugg01", NewTraveller("alice@example.com", ""))
		require.NoError(t, err)
		// A single completed member is a consensus of one
		assert.Equal(t, dto.SuggestionStatusReady, resp.Status)

		f2 := newFixture()
		seedTrio(f2)
		plan2 := f2.addPlan("SUGG02")
		f2.addMember(plan2.ID, "alice@example.com", joined, []string{"LIS"})
		f2.addMember(plan2.ID, "bob@example.com", joined, []string{"BCN"})

		resp, err = newFlow(f2, nil).GetSuggestions(ctx, "SUGG02", NewTraveller("alice@example.com", ""))
		require.NoError(t, err)
		assert.Equal(t, dto.SuggestionStatusPending, resp.Status)
		assert.NotNil(t, resp.Suggestions)
		assert.Empty(t, resp.Suggestions)
	})

	t.Run("PricesFromRequesterHomeAirport", func(t *testing.T) {
		f := newFixture()
		seedTrio(f)
		plan := f.addPlan("SUGG03")
		alice := f.addMember(plan.ID, "alice@example.com", joined, []string{"LIS", "BCN"})
		f.addMember(plan.ID, "bob@example.com", joined.Add(time.Minute), []string{"BCN", "LIS"})
		f.addMember(plan.ID, "carol@example.com", joined.Add(2*time.Minute), nil)
		home := "JFK"
		f.store.mu.Lock()
		for _, m := range f.store.members {
			if m.ID == alice.ID {
				m.HomeAirportCode = &home
			}
		}
		f.store.mu.Unlock()

		fares := services.NewMockFareProvider()
		fares.Fares["LIS"] = &services.Fare{Amount: "480.00", Currency: utils.FareCurrency}
		flow := newFlow(f, fares)

		resp, err := flow.GetSuggestions(ctx, "SUGG03", NewTraveller("alice@example.com", ""))
		require.NoError(t, err)
		require.Equal(t, dto.SuggestionStatusReady, resp.Status)
		require.Len(t, resp.Suggestions, 2)
		require.NotNil(t, resp.Suggestions[0].Price)
		assert.Equal(t, "480.00", resp.Suggestions[0].Price.Amount)
		assert.Nil(t, resp.Suggestions[1].Price)
		require.Len(t, fares.Calls, 2)
		assert.Equal(t, 3, fares.Calls[0].Adults)

		// Bob has no home airport
		resp, err = flow.GetSuggestions(ctx, "SUGG03", NewTraveller("bob@example.com", ""))
		require.NoError(t, err)
		assert.Nil(t, resp.Suggestions[0].Price)
		assert.Equal(t, 2, fares.CallCount())
		assert.Equal(t, 1, f.suggestions.saveBatchCalls)
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		f := newFixture()
		_, err := newFlow(f, nil).GetSuggestions(ctx, "NOPE00", NewTraveller("alice@example.com", ""))
		assert.True(t, IsPlanNotFound(err))
	})
}
