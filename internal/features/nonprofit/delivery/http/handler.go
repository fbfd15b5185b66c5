package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/common/middleware"
	"nonprofit-ads-analysis/internal/features/nonprofit/models"
	"nonprofit-ads-analysis/internal/features/nonprofit/service"
)

// maxBatchSize bounds a single validation request; lookups are sequential.
const maxBatchSize = 500

type NonprofitHandler struct {
	service service.ValidatorService
}

func NewNonprofitHandler(service service.ValidatorService) *NonprofitHandler {
	return &NonprofitHandler{
		service: service,
	}
}

func (h *NonprofitHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/organizations/:ein", h.GetOrganization)
	router.POST("/validations", h.ValidateBatch)
}

type ValidateBatchRequest struct {
	EINs []string `json:"eins"`
}

type OrganizationResponse struct {
	EIN          string               `json:"ein"`
	StatusCode   int                  `json:"status_code"`
	Organization *models.Organization `json:"organization"`
}

// GetOrganization validates one EIN and returns the registry organization.
func (h *NonprofitHandler) GetOrganization(c *gin.Context) {
	ein := strings.TrimSpace(c.Param("ein"))
	if ein == "" {
		middleware.SendError(c, errors.NewValidationError("ein", "must not be empty"))
		return
	}

	v, err := h.service.Validate(c.Request.Context(), ein)
	if err != nil {
		middleware.SendError(c, toAppError(err))
		return
	}
	if !v.Valid {
		middleware.SendError(c, errors.NewNotFoundError("organization", ein).
			WithDetail("reason", string(v.Reason)).
			WithDetail("status_code", v.StatusCode))
		return
	}

	c.JSON(http.StatusOK, OrganizationResponse{
		EIN:          v.EIN,
		StatusCode:   v.StatusCode,
		Organization: v.Organization,
	})
}

// ValidateBatch validates a list of EINs in order and returns the partition.
func (h *NonprofitHandler) ValidateBatch(c *gin.Context) {
	var req ValidateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	eins := service.Dedupe(req.EINs)
	if len(eins) == 0 {
		middleware.SendError(c, errors.NewValidationError("eins", "must contain at least one EIN"))
		return
	}
	if len(eins) > maxBatchSize {
		middleware.SendError(c, errors.NewValidationError("eins", "too many EINs in one request").
			WithDetail("max", maxBatchSize))
		return
	}

	result, err := h.service.ValidateAll(c.Request.Context(), middleware.GetRequestID(c), eins)
	if err != nil {
		middleware.SendError(c, toAppError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

func toAppError(err error) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	return errors.Wrap(err, errors.ErrCodeInternal, "Validation failed")
}
