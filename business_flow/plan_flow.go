package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/logging"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/repository"
	"github.com/amirphl/planeit/utils"
	"github.com/google/uuid"
)

// PlanFlow handles creating, listing and joining plans
type PlanFlow interface {
	CreatePlan(ctx context.Context, req *dto.CreatePlanRequest, metadata *ClientMetadata) (*dto.CreatePlanResponse, error)
	ListPlans(ctx context.Context, traveller Traveller) (*dto.ListPlansResponse, error)
	GetPlan(ctx context.Context, code string, traveller Traveller) (*dto.GetPlanResponse, error)
}

// PlanFlowImpl implements the plan business logic
type PlanFlowImpl struct {
	planRepo   repository.PlanRepository
	memberRepo repository.PlanMemberRepository
	tx         repository.Transactor
	newCode    func() string
}

// NewPlanFlow creates a new plan flow instance
func NewPlanFlow(planRepo repository.PlanRepository, memberRepo repository.PlanMemberRepository, tx repository.Transactor) PlanFlow {
	return &PlanFlowImpl{
		planRepo:   planRepo,
		memberRepo: memberRepo,
		tx:         tx,
		newCode:    generatePlanCode,
	}
}

// generatePlanCode returns the first six characters of a random UUID, upper-cased
func generatePlanCode() string {
	return strings.ToUpper(uuid.New().String()[:utils.PlanCodeLength])
}

// CreatePlan creates a plan and adds its creator as the first member
func (f *PlanFlowImpl) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest, metadata *ClientMetadata) (result *dto.CreatePlanResponse, err error) {
	defer func() {
		if err != nil {
			err = NewBusinessError("CREATE_PLAN_FAILED", "Failed to create plan", err)
		}
	}()

	creator := NewTraveller(req.CreatorEmail, req.CreatorName)
	if creator.Email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrPlanNameRequired
	}

	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var home *string
	if req.HomeAirportCode != nil {
		if code := utils.NormalizeAirportCode(*req.HomeAirportCode); code != "" {
			home = &code
		}
	}

	var plan *models.Plan
	var member *models.PlanMember
	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		code, err := f.allocateCode(txCtx)
		if err != nil {
			return err
		}

		plan = &models.Plan{
			Code:         code,
			Name:         name,
			Description:  strings.TrimSpace(req.Description),
			CreatorEmail: creator.Email,
			StartDate:    start,
			EndDate:      end,
		}
		if err := f.planRepo.Save(txCtx, plan); err != nil {
			return err
		}

		member = &models.PlanMember{
			PlanID:          plan.ID,
			Email:           creator.Email,
			Name:            creator.Name,
			HomeAirportCode: home,
			JoinedAt:        utils.UTCNow(),
		}
		return f.memberRepo.Save(txCtx, member)
	})
	if err != nil {
		return nil, err
	}

	plansCreatedTotal.Inc()
	logging.Ctx(ctx).Info().
		Str("plan_code", plan.Code).
		Str("creator", creator.Email).
		Str("ip", metadataIP(metadata)).
		Msg("Plan created")

	return &dto.CreatePlanResponse{
		Message: "Plan created successfully",
		Plan:    ToPlanDTO(*plan, []*models.PlanMember{member}),
	}, nil
}

// allocateCode draws plan codes until an unused one is found
func (f *PlanFlowImpl) allocateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < utils.PlanCodeMaxAttempts; attempt++ {
		code := f.newCode()
		exists, err := f.planRepo.Exists(ctx, models.PlanFilter{Code: &code})
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrPlanCodeExhausted
}

// ListPlans returns every plan the traveller is a member of
func (f *PlanFlowImpl) ListPlans(ctx context.Context, traveller Traveller) (*dto.ListPlansResponse, error) {
	if traveller.Email == "" {
		return nil, NewBusinessError("EMAIL_REQUIRED", "Traveller email is required", ErrInvalidEmail)
	}

	plans, err := f.planRepo.ListByMemberEmail(ctx, traveller.Email)
	if err != nil {
		return nil, NewBusinessError("LIST_PLANS_FAILED", "Failed to list plans", err)
	}

	out := make([]dto.PlanDTO, 0, len(plans))
	for _, p := range plans {
		members, err := f.memberRepo.ListByPlan(ctx, p.ID)
		if err != nil {
			return nil, NewBusinessError("LIST_PLANS_FAILED", "Failed to list plan members", err)
		}
		out = append(out, ToPlanDTO(*p, members))
	}

	return &dto.ListPlansResponse{
		Message: "Plans retrieved successfully",
		Plans:   out,
	}, nil
}

// GetPlan returns the plan for code, adding the traveller as a member on first access
func (f *PlanFlowImpl) GetPlan(ctx context.Context, code string, traveller Traveller) (*dto.GetPlanResponse, error) {
	if traveller.Email == "" {
		return nil, NewBusinessError("EMAIL_REQUIRED", "Traveller email is required", ErrInvalidEmail)
	}

	plan, err := f.planRepo.ByCode(ctx, normalizePlanCode(code))
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to fetch plan", err)
	}
	if plan == nil {
		return nil, NewBusinessError("PLAN_NOT_FOUND", "Plan not found", ErrPlanNotFound)
	}

	joined, err := f.ensureMember(ctx, plan, traveller)
	if err != nil {
		return nil, NewBusinessError("PLAN_JOIN_FAILED", "Failed to join plan", err)
	}

	members, err := f.memberRepo.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, NewBusinessError("PLAN_FETCH_FAILED", "Failed to list plan members", err)
	}

	msg := "Plan retrieved successfully"
	if joined {
		msg = "Joined plan successfully"
	}
	return &dto.GetPlanResponse{
		Message: msg,
		Plan:    ToPlanDTO(*plan, members),
		Joined:  joined,
	}, nil
}

// ensureMember adds traveller to plan unless already present.
// It reports whether a membership was created.
func (f *PlanFlowImpl) ensureMember(ctx context.Context, plan *models.Plan, traveller Traveller) (bool, error) {
	existing, err := f.memberRepo.ByPlanAndEmail(ctx, plan.ID, traveller.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	member := &models.PlanMember{
		PlanID:   plan.ID,
		Email:    traveller.Email,
		Name:     traveller.Name,
		JoinedAt: utils.UTCNow(),
	}
	if err := f.memberRepo.Save(ctx, member); err != nil {
		// A concurrent first access may have inserted the same membership
		again, lookupErr := f.memberRepo.ByPlanAndEmail(ctx, plan.ID, traveller.Email)
		if lookupErr == nil && again != nil {
			return false, nil
		}
		return false, err
	}

	planJoinsTotal.Inc()
	logging.Ctx(ctx).Info().Str("plan_code", plan.Code).Str("member", traveller.Email).Msg("Traveller joined plan")
	return true, nil
}

func parseDateRange(startRaw, endRaw string) (start, end time.Time, err error) {
	start, err = utils.ParseDate(startRaw)
	if err != nil {
		return start, end, fmt.Errorf("start_date %q: %w", startRaw, ErrInvalidDateFormat)
	}
	end, err = utils.ParseDate(endRaw)
	if err != nil {
		return start, end, fmt.Errorf("end_date %q: %w", endRaw, ErrInvalidDateFormat)
	}
	if end.Before(start) {
		return start, end, ErrInvalidDateRange
	}
	return start, end, nil
}

func metadataIP(m *ClientMetadata) string {
	if m == nil {
		return ""
	}
	return m.IPAddress
}
