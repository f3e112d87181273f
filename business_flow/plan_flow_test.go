package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanFlow(f *fixture) *PlanFlowImpl {
	return NewPlanFlow(f.plans, f.members, f.tx).(*PlanFlowImpl)
}

func validCreatePlanRequest() *dto.CreatePlanRequest {
	return &dto.CreatePlanRequest{
		Name:         "  Summer trip ",
		Description:  "Somewhere warm",
		StartDate:    "2026-07-01",
		EndDate:      "2026-07-10",
		CreatorName:  "Alice",
		CreatorEmail: " Alice@Example.com ",
	}
}

func TestPlanFlow_CreatePlan(t *testing.T) {
	ctx := context.Background()
	metadata := NewClientMetadata("127.0.0.1", "test-agent")

	t.Run("CreatesPlanWithCreatorAsMember", func(t *testing.T) {
		f := newFixture()
		req := validCreatePlanRequest()
		req.HomeAirportCode = utils.ToPtr("jfk")

		resp, err := newTestPlanFlow(f).CreatePlan(ctx, req, metadata)
		require.NoError(t, err)

		plan := resp.Plan
		assert.Len(t, plan.Code, utils.PlanCodeLength)
		assert.Equal(t, normalizePlanCode(plan.Code), plan.Code)
		assert.Equal(t, "Summer trip", plan.Name)
		assert.Equal(t, "alice@example.com", plan.CreatorEmail)
		assert.Equal(t, "2026-07-01", plan.StartDate)
		assert.Equal(t, "2026-07-10", plan.EndDate)
		assert.False(t, plan.SuggestionsReady)
		require.Len(t, plan.Members, 1)
		assert.Equal(t, "Alice", plan.Members[0].Name)
		require.NotNil(t, plan.Members[0].HomeAirportCode)
		assert.Equal(t, "JFK", *plan.Members[0].HomeAirportCode)
		assert.Equal(t, 1, f.tx.Calls())

		stored, err := f.members.ByPlanAndEmail(ctx, plan.ID, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
	})

	t.Run("SameDayTripIsValid", func(t *testing.T) {
		f := newFixture()
		req := validCreatePlanRequest()
		req.EndDate = req.StartDate
		_, err := newTestPlanFlow(f).CreatePlan(ctx, req, nil)
		assert.NoError(t, err)
	})

	cases := []struct {
		name   string
		mutate func(r *dto.CreatePlanRequest)
		check  func(error) bool
	}{
		{"BadStartDate", func(r *dto.CreatePlanRequest) { r.StartDate = "07/01/2026" }, IsInvalidDateFormat},
		{"BadEndDate", func(r *dto.CreatePlanRequest) { r.EndDate = "2026-13-01" }, IsInvalidDateFormat},
		{"EndBeforeStart", func(r *dto.CreatePlanRequest) { r.EndDate = "2026-06-30" }, IsInvalidDateRange},
		{"BlankName", func(r *dto.CreatePlanRequest) { r.Name = "   " }, IsPlanNameRequired},
		{"NoEmail", func(r *dto.CreatePlanRequest) { r.CreatorEmail = "" }, IsInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			req := validCreatePlanRequest()
			tc.mutate(req)

			_, err := newTestPlanFlow(f).CreatePlan(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, tc.check(err), err.Error())
			assert.True(t, IsValidationError(err))
			assert.Equal(t, "CREATE_PLAN_FAILED", ErrorCode(err, ""))
			assert.Empty(t, f.store.plans)
		})
	}

	t.Run("RetriesCodeCollisions", func(t *testing.T) {
		f := newFixture()
		f.addPlan("TAKEN1")
		codes := []string{"TAKEN1", "FRESH1"}
		flow := newTestPlanFlow(f)
		flow.newCode = func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		}

		resp, err := flow.CreatePlan(ctx, validCreatePlanRequest(), metadata)
		require.NoError(t, err)
		assert.Equal(t, "FRESH1", resp.Plan.Code)
	})

	t.Run("GivesUpAfterMaxAttempts", func(t *testing.T) {
		f := newFixture()
		f.addPlan("TAKEN1")
		flow := newTestPlanFlow(f)
		flow.newCode = func() string { return "TAKEN1" }

		_, err := flow.CreatePlan(ctx, validCreatePlanRequest(), metadata)
		assert.ErrorIs(t, err, ErrPlanCodeExhausted)
	})
}

func TestPlanFlow_GetPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("JoinsOnFirstAccessOnly", func(t *testing.T) {
		f := newFixture()
		flow := newTestPlanFlow(f)
		created, err := flow.CreatePlan(ctx, validCreatePlanRequest(), nil)
		require.NoError(t, err)

		bob := NewTraveller("bob@example.com", "")
		first, err := flow.GetPlan(ctx, created.Plan.Code, bob)
		require.NoError(t, err)
		assert.True(t, first.Joined)
		assert.Equal(t, 2, first.Plan.MemberCount)

		second, err := flow.GetPlan(ctx, created.Plan.Code, bob)
		require.NoError(t, err)
		assert.False(t, second.Joined)
		assert.Equal(t, 2, second.Plan.MemberCount)
		assert.Equal(t, "bob", second.Plan.Members[1].Name)
	})

	t.Run("CodeIsCaseInsensitive", func(t *testing.T) {
		f := newFixture()
		f.addPlan("ABC123")
		resp, err := newTestPlanFlow(f).GetPlan(ctx, " abc123 ", NewTraveller("alice@example.com", "Alice"))
		require.NoError(t, err)
		assert.Equal(t, "ABC123", resp.Plan.Code)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		f := newFixture()
		_, err := newTestPlanFlow(f).GetPlan(ctx, "NOPE00", NewTraveller("alice@example.com", ""))
		assert.True(t, IsPlanNotFound(err))
		assert.Empty(t, f.store.members)
	})
}

func TestPlanFlow_ListPlans(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	flow := newTestPlanFlow(f)

	a := f.addPlan("PLAN01")
	f.addPlan("PLAN02")
	c := f.addPlan("PLAN03")
	f.addMember(a.ID, "bob@example.com", joined, nil)
	f.addMember(c.ID, "bob@example.com", joined, nil)
	f.addMember(c.ID, "carol@example.com", joined, nil)

	resp, err := flow.ListPlans(ctx, NewTraveller("BOB@example.com", ""))
	require.NoError(t, err)
	require.Len(t, resp.Plans, 2)
	assert.Equal(t, "PLAN01", resp.Plans[0].Code)
	assert.Equal(t, "PLAN03", resp.Plans[1].Code)
	assert.Equal(t, 2, resp.Plans[1].MemberCount)

	resp, err = flow.ListPlans(ctx, NewTraveller("nobody@example.com", ""))
	require.NoError(t, err)
	assert.Empty(t, resp.Plans)
}

func TestNewTraveller(t *testing.T) {
	assert.Equal(t, Traveller{Email: "alice@example.com", Name: "alice"}, NewTraveller(" Alice@Example.COM", " "))
	assert.Equal(t, Traveller{Email: "bob@example.com", Name: "Bob B"}, NewTraveller("bob@example.com", "Bob B"))
	assert.Equal(t, Traveller{}, NewTraveller("", ""))
}
