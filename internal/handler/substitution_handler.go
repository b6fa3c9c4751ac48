package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// SubstitutionHandler exposes per-session substitution endpoints.
type SubstitutionHandler struct {
	substitutions *service.SubstitutionService
}

// NewSubstitutionHandler constructs handler.
func NewSubstitutionHandler(substitutions *service.SubstitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{substitutions: substitutions}
}

// Create godoc
// @Summary Record a substitute for a session
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SubstitutionRequest true "Substitution"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/substitution [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	var req dto.SubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.substitutions.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Change the substitute of a session
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SubstitutionRequest true "Substitution"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/substitution [put]
func (h *SubstitutionHandler) Update(c *gin.Context) {
	var req dto.SubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.substitutions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Destroy godoc
// @Summary Revert a substitution
// @Tags Substitutions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/substitution [delete]
func (h *SubstitutionHandler) Destroy(c *gin.Context) {
	result, err := h.substitutions.Destroy(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
