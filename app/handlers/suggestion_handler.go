package handlers

import (
	"time"

	"github.com/amirphl/planeit/app/dto"
	businessflow "github.com/amirphl/planeit/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// suggestionRequestTimeout bounds materialization plus photo and fare lookups
const suggestionRequestTimeout = 45 * time.Second

// SuggestionHandlerInterface defines the contract for suggestion handlers
type SuggestionHandlerInterface interface {
	List(c fiber.Ctx) error
	Vote(c fiber.Ctx) error
	Podium(c fiber.Ctx) error
	ExportResults(c fiber.Ctx) error
}

// SuggestionHandler serves the consensus list, votes and results
type SuggestionHandler struct {
	suggestions businessflow.SuggestionFlow
	votes       businessflow.VoteFlow
	results     businessflow.ResultsFlow
	validator   *validator.Validate
}

func (h *SuggestionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SuggestionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(
	suggestions businessflow.SuggestionFlow,
	votes businessflow.VoteFlow,
	results businessflow.ResultsFlow,
) SuggestionHandlerInterface {
	return &SuggestionHandler{
		suggestions: suggestions,
		votes:       votes,
		results:     results,
		validator:   validator.New(),
	}
}

// List Suggestions
// @Summary List Suggestions
// @Description Get the plan's consensus destinations with photos and live prices. Status is pending until the members share a destination.
// @Tags Suggestions
// @Produce json
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Success 200 {object} dto.APIResponse{data=dto.GetSuggestionsResponse} "Suggestions retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans/{code}/suggestions [get]
func (h *SuggestionHandler) List(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	ctx, cancel := createRequestContextWithTimeout(c, "/api/v1/plans/:code/suggestions", suggestionRequestTimeout)
	defer cancel()

	result, err := h.suggestions.GetSuggestions(ctx, c.Params("code"), traveller)
	if err != nil {
		if businessflow.IsPlanNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get suggestions", businessflow.ErrorCode(err, "SUGGESTIONS_FETCH_FAILED"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Vote
// @Summary Vote For Destination
// @Description Like one of the plan's suggested destinations
// @Tags Suggestions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Param request body dto.CastVoteRequest true "Destination to vote for"
// @Success 200 {object} dto.APIResponse{data=dto.CastVoteResponse} "Vote recorded successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan or destination not found"
// @Failure 429 {object} dto.APIResponse "Too many votes"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans/{code}/votes [post]
func (h *SuggestionHandler) Vote(c fiber.Ctx) error {
	traveller, ok := travellerFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Traveller not found in context", "MISSING_TRAVELLER", nil)
	}

	var req dto.CastVoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/plans/:code/votes")
	defer cancel()

	result, err := h.votes.CastVote(ctx, c.Params("code"), traveller, &req)
	if err != nil {
		switch {
		case businessflow.IsPlanNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		case businessflow.IsDestinationNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Destination is not one of this plan's suggestions", "DESTINATION_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record vote", businessflow.ErrorCode(err, "VOTE_FAILED"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Podium
// @Summary Get Podium
// @Description Get the most liked suggestions of a plan
// @Tags Suggestions
// @Produce json
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Success 200 {object} dto.APIResponse{data=dto.PodiumResponse} "Podium retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans/{code}/podium [get]
func (h *SuggestionHandler) Podium(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/plans/:code/podium")
	defer cancel()

	result, err := h.votes.Podium(ctx, c.Params("code"))
	if err != nil {
		if businessflow.IsPlanNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get podium", businessflow.ErrorCode(err, "PODIUM_FAILED"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// ExportResults
// @Summary Export Results
// @Description Download the plan's suggestions, likes and members as an Excel workbook
// @Tags Suggestions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param code path string true "Plan code"
// @Success 200 {file} file "Excel workbook"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Plan not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/plans/{code}/results.xlsx [get]
func (h *SuggestionHandler) ExportResults(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/plans/:code/results.xlsx")
	defer cancel()

	filename, data, err := h.results.ExportResults(ctx, c.Params("code"))
	if err != nil {
		if businessflow.IsPlanNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Plan not found", "PLAN_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export results", businessflow.ErrorCode(err, "EXPORT_FAILED"), nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
