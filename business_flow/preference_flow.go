package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/app/services"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/recommender"
	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
)

// PreferenceFlow turns a member's quiz answers into a taste vector and ranking
type PreferenceFlow interface {
	SubmitPreferences(ctx context.Context, planCode string, traveller Traveller, req *dto.SubmitPreferencesRequest) (*dto.SubmitPreferencesResponse, error)
}

// PreferenceFlowImpl implements the preference submission business logic
type PreferenceFlowImpl struct {
	planRepo   repository.PlanRepository
	memberRepo repository.PlanMemberRepository
	embedder   services.EmbeddingProvider
	catalog    *Catalog
	topN       int
}

// NewPreferenceFlow creates a new preference flow instance
func NewPreferenceFlow(
	planRepo repository.PlanRepository,
	memberRepo repository.PlanMemberRepository,
	embedder services.EmbeddingProvider,
	catalog *Catalog,
	topN int,
) PreferenceFlow {
	if topN <= 0 {
		topN = utils.RankedDestinationsLimit
	}
	return &PreferenceFlowImpl{
		planRepo:   planRepo,
		memberRepo: memberRepo,
		embedder:   embedder,
		catalog:    catalog,
		topN:       topN,
	}
}

// SubmitPreferences summarizes the answers, embeds the summary and stores the member's ranking.
// A repeated submission replaces the previous one.
func (f *PreferenceFlowImpl) SubmitPreferences(ctx context.Context, planCode string, traveller Traveller, req *dto.SubmitPreferencesRequest) (result *dto.SubmitPreferencesResponse, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = ErrorCode(err, "error")
		}
		preferencesSubmittedTotal.WithLabelValues(outcome).Inc()
	}()

	answers := toQuizAnswers(req.Answers)
	if len(answers) == 0 {
		return nil, NewBusinessError("EMPTY_ANSWERS", "At least one answer is required", ErrEmptyAnswers)
	}

	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(planCode))
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	member, err := f.memberRepo.ByPlanAndEmail(ctx, plan.ID, traveller.Email)
	if err != nil {
		return nil, NewBusinessError("MEMBER_FETCH_FAILED", "Failed to fetch plan member", err)
	}
	if member == nil {
		return nil, NewBusinessError("MEMBER_NOT_FOUND", "Join the plan before answering the quiz", ErrMemberNotFound)
	}

	if f.catalog == nil || !f.catalog.Ready() {
		return nil, NewBusinessError("CATALOG_NOT_READY", "Destination catalog is not ready", ErrCatalogNotReady)
	}

	summary, err := f.embedder.Summarize(ctx, answers)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("plan_code", plan.Code).Msg("Preference summary failed")
		return nil, NewBusinessError("PREFERENCES_UNAVAILABLE", "Could not summarize preferences", joinUpstream(err))
	}

	taste, err := f.embedder.Embed(ctx, summary)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("plan_code", plan.Code).Msg("Preference embedding failed")
		return nil, NewBusinessError("PREFERENCES_UNAVAILABLE", "Could not embed preferences", joinUpstream(err))
	}

	ranked, err := recommender.Rank(taste, f.catalog.Vectors(), f.topN)
	if err != nil {
		return nil, NewBusinessError("RANKING_FAILED", "Could not rank destinations", err)
	}
	codes := recommender.Codes(ranked)

	update := repository.PreferenceUpdate{
		Summary:             summary,
		TasteVector:         taste,
		TopDestinationCodes: codes,
	}
	if req.HomeAirportCode != nil {
		if home := utils.NormalizeAirportCode(*req.HomeAirportCode); home != "" {
			update.HomeAirportCode = &home
		}
	}
	if err := f.memberRepo.UpdatePreferences(ctx, member.ID, update); err != nil {
		return nil, NewBusinessError("PREFERENCES_SAVE_FAILED", "Failed to save preferences", err)
	}

	total, completed, err := f.progress(ctx, plan)
	if err != nil {
		return nil, NewBusinessError("PREFERENCES_SAVE_FAILED", "Failed to read plan progress", err)
	}

	logging.Ctx(ctx).Info().
		Str("plan_code", plan.Code).
		Str("member", traveller.Email).
		Int("ranked", len(codes)).
		Int("completed", completed).
		Int("total", total).
		Msg("Preferences submitted")

	return &dto.SubmitPreferencesResponse{
		Message:          "Preferences saved successfully",
		Summary:          summary,
		TopDestinations:  codes,
		CompletedMembers: completed,
		TotalMembers:     total,
	}, nil
}

func (f *PreferenceFlowImpl) progress(ctx context.Context, plan *models.Plan) (total, completed int, err error) {
	members, err := f.memberRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return 0, 0, err
	}
	for _, m := range members {
		if m.HasCompletedQuiz {
			completed++
		}
	}
	return len(members), completed, nil
}

func toQuizAnswers(in []dto.QuizAnswerDTO) []services.QuizAnswer {
	out := make([]services.QuizAnswer, 0, len(in))
	for _, a := range in {
		answer := strings.TrimSpace(a.Answer)
		if answer == "" {
			continue
		}
		out = append(out, services.QuizAnswer{Question: strings.TrimSpace(a.Question), Answer: answer})
	}
	return out
}

// joinUpstream tags a provider failure as ErrPreferencesUnavailable while keeping the cause
func joinUpstream(err error) error {
	return fmt.Errorf("%w: %w", ErrPreferencesUnavailable, err)
}
