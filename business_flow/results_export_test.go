package businessflow

import (
	"bytes"
	"context"
	"testing"

	"github.com/amirphl/planeit/app/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestResultsFlow_ExportResults(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesSuggestionsAndMembers", func(t *testing.T) {
		f, plan, votes := votingFixture(t)
		_, err := votes.CastVote(ctx, plan.Code, NewTraveller("bob@example.com", ""), &dto.CastVoteRequest{AirportCode: "FCO"})
		require.NoError(t, err)

		filename, content, err := NewResultsFlow(f.plans, f.members, f.suggestions).ExportResults(ctx, "vote01")
		require.NoError(t, err)
		assert.Equal(t, "plan_vote01_results.xlsx", filename)

		xl, err := excelize.OpenReader(bytes.NewReader(content))
		require.NoError(t, err)
		defer func() { _ = xl.Close() }()

		assert.Equal(t, []string{suggestionsSheet, membersSheet}, xl.GetSheetList())

		rows, err := xl.GetRows(suggestionsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "airport_code", rows[0][1])
		assert.Equal(t, "LIS", rows[1][1])
		assert.Equal(t, "FCO", rows[3][1])
		assert.Equal(t, "1", rows[3][4])

		members, err := xl.GetRows(membersSheet)
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, "bob@example.com", members[2][1])
		assert.Equal(t, "true", members[2][4])
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		f := newFixture()
		_, _, err := NewResultsFlow(f.plans, f.members, f.suggestions).ExportResults(ctx, "NOPE00")
		assert.True(t, IsPlanNotFound(err))
	})
}
