package handlers

import (
	"time"

	"github.com/amirphl/planeit/app/dto"
	businessflow "github.com/amirphl/planeit/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// preferenceRequestTimeout covers two LLM round trips
const preferenceRequestTimeout = 60 * time.Second

// PreferenceHandlerInterface defines the contract for preference handlers
type PreferenceHandlerInterface interface {
	Submit(c fiber.Ctx) error
}

// PreferenceHandler handles quiz submissions
type PreferenceHandler struct {
	flow      businessflow.PreferenceFlow
	validator *validator.Validate
}

func (h *PreferenceHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PreferenceHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(flow businessflow.PreferenceFlow) PreferenceHandlerInterface {
	return &PreferenceHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Submit Preferences
// @Summary Submit Preferences
// @Description Submit quiz answers for a plan. Returns the generated travel summary and the member's top destinations.
// @Tags Preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Param request body dto.SubmitPreferencesRequest true "Quiz answers"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitPreferencesResponse} "Preferences saved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan or member not found"
// @Failure 502 {object} dto.APIResponse "Preference provider unavailable"
// @Failure 503 {object} dto.APIResponse "Destination catalog not ready"
// @Router /api/v1/plans/{code}/preferences [post]
func (h *PreferenceHandler) Submit(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	var req dto.SubmitPreferencesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContextWithTimeout(c, "/api/v1/plans/:code/preferences", preferenceRequestTimeout)
	defer cancel()

	result, err := h.flow.SubmitPreferences(ctx, c.Params("code"), traveller, &req)
	if err != nil {
		switch {
		case businessflow.IsEmptyAnswers(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one answer is required", "EMPTY_ANSWERS", nil)
		case businessflow.IsPlanNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		case businessflow.IsMemberNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Join the plan before answering the quiz", "MEMBER_NOT_FOUND", nil)
		case businessflow.IsPreferencesUnavailable(err):
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Preference provider is unavailable", "PREFERENCES_UNAVAILABLE", nil)
		case businessflow.IsCatalogNotReady(err):
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Destination catalog is not ready", "CATALOG_NOT_READY", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save preferences", businessflow.ErrorCode(err, "PREFERENCES_SAVE_FAILED"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}
