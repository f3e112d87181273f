package handlers

import (
	"github.com/amirphl/planeit/app/dto"
	businessflow "github.com/amirphl/planeit/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// PlanHandlerInterface defines the contract for plan handlers
type PlanHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
}

// PlanHandler handles plan-related HTTP requests
type PlanHandler struct {
	flow      businessflow.PlanFlow
	validator *validator.Validate
}

func (h *PlanHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PlanHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(flow businessflow.PlanFlow) PlanHandlerInterface {
	return &PlanHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Create Plan
// @Summary Create Plan
// @Description Create a group trip plan. The caller becomes its first member.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePlanRequest true "Plan details"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePlanResponse} "Plan created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid dates"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans [post]
func (h *PlanHandler) Create(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	var req dto.CreatePlanRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}
	req.CreatorEmail = traveller.Email
	if req.CreatorName == "" {
		req.CreatorName = traveller.Name
	}

	ctx, cancel := createRequestContext(c, "/api/v1/plans")
	defer cancel()

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestid.FromContext(c))
	result, err := h.flow.CreatePlan(ctx, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsInvalidDateFormat(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD", "INVALID_DATE_FORMAT", nil)
		case businessflow.IsInvalidDateRange(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "End date cannot be before start date", "INVALID_DATE_RANGE", nil)
		case businessflow.IsPlanNameRequired(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Plan name is required", "PLAN_NAME_REQUIRED", nil)
		case businessflow.IsInvalidEmail(err):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller email is missing", "MISSING_TRAVELLER", nil)
		case businessflow.IsValidationError(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid plan", "VALIDATION_ERROR", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create plan", "CREATE_PLAN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Plans
// @Summary List Plans
// @Description List the plans the caller is a member of
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListPlansResponse} "Plans retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans [get]
func (h *PlanHandler) List(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/plans")
	defer cancel()

	result, err := h.flow.ListPlans(ctx, traveller)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list plans", "LIST_PLANS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Get Plan
// @Summary Get Plan
// @Description Get a plan by its share code. The caller joins the plan on first access.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Success 200 {object} dto.APIResponse{data=dto.GetPlanResponse} "Plan retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans/{code} [get]
func (h *PlanHandler) Get(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/plans/:code")
	defer cancel()

	result, err := h.flow.GetPlan(ctx, c.Params("code"), traveller)
	if err != nil {
		if businessflow.IsPlanNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get plan", businessflow.ErrorCode(err, "PLAN_FETCH_FAILED"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
