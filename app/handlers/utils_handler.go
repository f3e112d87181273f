package handlers

import (
	"github.com/amirphl/planeit/app/dto"
	businessflow "github.com/amirphl/planeit/business_flow"
	"github.com/gofiber/fiber/v3"
)

// UtilsHandlerInterface defines the contract for utility handlers
type UtilsHandlerInterface interface {
	Photo(c fiber.Ctx) error
}

// UtilsHandler serves lookups that are not bound to a plan
type UtilsHandler struct {
	photos businessflow.PhotoFlow
}

func (h *UtilsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *UtilsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewUtilsHandler creates a new utils handler
func NewUtilsHandler(photos businessflow.PhotoFlow) UtilsHandlerInterface {
	return &UtilsHandler{photos: photos}
}

// Photo
// @Summary Destination Photo
// @Description Look up a landscape photo for a city
// @Tags Utils
// @Produce json
// @Param city path string true "City"
// @Param country path string true "Country"
// @Success 200 {object} dto.APIResponse{data=dto.PhotoResponse} "Photo found"
// @Failure 400 {object} dto.APIResponse "City and country are required"
// @Failure 404 {object} dto.APIResponse "No photo found"
// @Failure 502 {object} dto.APIResponse "Photo provider unavailable"
// @Router /api/v1/utils/photos/{city}/{country} [get]
func (h *UtilsHandler) Photo(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/utils/photos/:city/:country")
	defer cancel()

	result, err := h.photos.GetPhoto(ctx, c.Params("city"), c.Params("country"))
	if err != nil {
		switch {
		case businessflow.IsPhotoQueryInvalid(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "City and country are required", "PHOTO_QUERY_INVALID", nil)
		case businessflow.IsPhotoNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "No photo found", "PHOTO_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Photo provider is unavailable", businessflow.ErrorCode(err, "PHOTO_PROVIDER_UNAVAILABLE"), nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Photo found", result)
}
