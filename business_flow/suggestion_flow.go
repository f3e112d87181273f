package businessflow

import (
	"context"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/repository"
)

// SuggestionFlow serves a plan's consensus list with live enrichment
type SuggestionFlow interface {
	GetSuggestions(ctx context.Context, planCode string, traveller Traveller) (*dto.GetSuggestionsResponse, error)
}

// SuggestionFlowImpl implements the suggestion read path
type SuggestionFlowImpl struct {
	planRepo     repository.PlanRepository
	memberRepo   repository.PlanMemberRepository
	materializer SuggestionMaterializer
	assembler    EnrichmentAssembler
}

// NewSuggestionFlow creates a new suggestion flow instance
func NewSuggestionFlow(planRepo repository.PlanRepository, memberRepo repository.PlanMemberRepository, materializer SuggestionMaterializer, assembler EnrichmentAssembler) SuggestionFlow {
	return &SuggestionFlowImpl{
		planRepo:     planRepo,
		memberRepo:   memberRepo,
		materializer: materializer,
		assembler:    assembler,
	}
}

// GetSuggestions materializes the list on first read and enriches it for the caller.
// Prices are quoted from the caller's home airport when one is known.
func (f *SuggestionFlowImpl) GetSuggestions(ctx context.Context, planCode string, traveller Traveller) (*dto.GetSuggestionsResponse, error) {
	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(planCode))
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	outcome, err := f.materializer.Materialize(ctx, plan)
	if err != nil {
		if IsPlanNotFound(err) {
			return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", err)
		}
		return nil, NewBusinessError("SUGGESTIONS_FAILED", "Failed to build suggestions", err)
	}

	if outcome.Kind == NoConsensusYet {
		return &dto.GetSuggestionsResponse{
			Message:     "No common destination yet",
			Status:      dto.SuggestionStatusPending,
			Suggestions: []dto.SuggestionDTO{},
		}, nil
	}

	requester, err := f.memberRepo.ByPlanAndEmail(ctx, plan.ID, traveller.Email)
	if err != nil {
		return nil, NewBusinessError("MEMBER_FETCH_FAILED", "Failed to fetch plan member", err)
	}
	memberCount, err := f.memberRepo.CountByPlan(ctx, plan.ID)
	if err != nil {
		return nil, NewBusinessError("MEMBER_FETCH_FAILED", "Failed to count plan members", err)
	}

	enriched := f.assembler.Enrich(ctx, plan, int(memberCount), outcome.Suggestions, requester)
	out := make([]dto.SuggestionDTO, 0, len(enriched))
	for _, e := range enriched {
		out = append(out, ToEnrichedSuggestionDTO(e))
	}

	return &dto.GetSuggestionsResponse{
		Message:     "Suggestions retrieved successfully",
		Status:      dto.SuggestionStatusReady,
		Suggestions: out,
	}, nil
}
