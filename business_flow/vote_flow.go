package businessflow

import (
	"context"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/recommender"
	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
)

// VoteFlow records likes on suggestions and resolves the podium
type VoteFlow interface {
	CastVote(ctx context.Context, planCode string, traveller Traveller, req *dto.CastVoteRequest) (*dto.CastVoteResponse, error)
	Podium(ctx context.Context, planCode string) (*dto.PodiumResponse, error)
}

// VoteFlowImpl implements voting and podium resolution
type VoteFlowImpl struct {
	planRepo        repository.PlanRepository
	memberRepo      repository.PlanMemberRepository
	suggestionRepo  repository.SuggestedDestinationRepository
	destinationRepo repository.DestinationRepository
	tx              repository.Transactor
	podiumSize      int
}

// NewVoteFlow creates a new vote flow instance
func NewVoteFlow(
	planRepo repository.PlanRepository,
	memberRepo repository.PlanMemberRepository,
	suggestionRepo repository.SuggestedDestinationRepository,
	destinationRepo repository.DestinationRepository,
	tx repository.Transactor,
	podiumSize int,
) VoteFlow {
	if podiumSize <= 0 {
		podiumSize = utils.PodiumSize
	}
	return &VoteFlowImpl{
		planRepo:        planRepo,
		memberRepo:      memberRepo,
		suggestionRepo:  suggestionRepo,
		destinationRepo: destinationRepo,
		tx:              tx,
		podiumSize:      podiumSize,
	}
}

// CastVote adds a like to the plan suggestion and to the destination's global count,
// and marks the voter. Repeat votes count again.
func (f *VoteFlowImpl) CastVote(ctx context.Context, planCode string, traveller Traveller, req *dto.CastVoteRequest) (result *dto.CastVoteResponse, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = ErrorCode(err, "error")
		}
		votesTotal.WithLabelValues(outcome).Inc()
	}()

	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(planCode))
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	code := utils.NormalizeAirportCode(req.AirportCode)
	var marked int64
	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		rows, err := f.suggestionRepo.IncrementLikes(txCtx, plan.ID, code)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrDestinationNotFound
		}
		if _, err := f.destinationRepo.IncrementLikes(txCtx, code); err != nil {
			return err
		}
		marked, err = f.memberRepo.MarkVoted(txCtx, plan.ID, traveller.Email)
		return err
	})
	if err != nil {
		if IsDestinationNotFound(err) {
			return nil, NewBusinessError("DESTINATION_NOT_FOUND", "Destination is not among the plan's suggestions", err)
		}
		return nil, NewBusinessError("VOTE_FAILED", "Failed to record vote", err)
	}

	log := logging.Ctx(ctx).Info()
	if marked == 0 {
		log = logging.Ctx(ctx).Warn()
	}
	log.Str("plan_code", plan.Code).
		Str("airport_code", code).
		Str("member", traveller.Email).
		Bool("member_marked", marked > 0).
		Msg("Vote recorded")

	return &dto.CastVoteResponse{
		Message:     "Vote recorded successfully",
		AirportCode: code,
	}, nil
}

// Podium returns the most liked suggestions; ties keep list order
func (f *VoteFlowImpl) Podium(ctx context.Context, planCode string) (*dto.PodiumResponse, error) {
	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(planCode))
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	rows, err := f.suggestionRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, NewBusinessError("SUGGESTIONS_FETCH_FAILED", "Failed to fetch suggestions", err)
	}

	top := recommender.Podium(derefSuggestions(rows), f.podiumSize)
	return &dto.PodiumResponse{
		Message: "Podium retrieved successfully",
		Podium:  toSuggestionDTOs(top),
	}, nil
}

func toSuggestionDTOs(rows []models.SuggestedDestination) []dto.SuggestionDTO {
	out := make([]dto.SuggestionDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToSuggestionDTO(r))
	}
	return out
}
