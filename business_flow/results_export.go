package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
	"github.com/xuri/excelize/v2"
)

const (
	suggestionsSheet = "Suggestions"
	membersSheet     = "Members"
)

// ResultsFlow exports a plan's voting results
type ResultsFlow interface {
	ExportResults(ctx context.Context, planCode string) (filename string, content []byte, err error)
}

// ResultsFlowImpl builds the results workbook
type ResultsFlowImpl struct {
	planRepo       repository.PlanRepository
	memberRepo     repository.PlanMemberRepository
	suggestionRepo repository.SuggestedDestinationRepository
}

// NewResultsFlow creates a new results flow instance
func NewResultsFlow(planRepo repository.PlanRepository, memberRepo repository.PlanMemberRepository, suggestionRepo repository.SuggestedDestinationRepository) ResultsFlow {
	return &ResultsFlowImpl{
		planRepo:       planRepo,
		memberRepo:     memberRepo,
		suggestionRepo: suggestionRepo,
	}
}

// ExportResults writes the plan's suggestions with their likes and the member roster to an xlsx workbook
func (f *ResultsFlowImpl) ExportResults(ctx context.Context, planCode string) (string, []byte, error) {
	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(planCode))
	if err != nil {
		return "", nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return "", nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	rows, err := f.suggestionRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return "", nil, NewBusinessError("SUGGESTIONS_FETCH_FAILED", "Failed to fetch suggestions", err)
	}
	members, err := f.memberRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return "", nil, NewBusinessError("MEMBER_FETCH_FAILED", "Failed to fetch plan members", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), suggestionsSheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to prepare workbook", err)
	}
	header := []string{"position", "airport_code", "city", "country", "likes", "photo_url"}
	_ = xl.SetSheetRow(suggestionsSheet, "A1", &header)
	for i, s := range rows {
		photo := ""
		if s.PhotoURL != nil {
			photo = *s.PhotoURL
		}
		record := []any{s.Position, s.AirportCode, s.City, s.Country, s.Likes, photo}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(suggestionsSheet, cellRef, &record)
	}

	if _, err := xl.NewSheet(membersSheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to prepare workbook", err)
	}
	header = []string{"name", "email", "home_airport_code", "has_completed_quiz", "has_voted", "joined_at"}
	_ = xl.SetSheetRow(membersSheet, "A1", &header)
	for i, m := range members {
		home := ""
		if m.HomeAirportCode != nil {
			home = *m.HomeAirportCode
		}
		record := []string{
			m.Name,
			m.Email,
			home,
			strconv.FormatBool(m.HasCompletedQuiz),
			strconv.FormatBool(m.HasVoted),
			utils.FormatDate(m.JoinedAt),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(membersSheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("plan_%s_results.xlsx", strings.ToLower(plan.Code))
	return filename, buf.Bytes(), nil
}
