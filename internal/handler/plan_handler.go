package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusdesk/course-planner-api/internal/dto"
	"github.com/campusdesk/course-planner-api/internal/service"
	appErrors "github.com/campusdesk/course-planner-api/pkg/errors"
	"github.com/campusdesk/course-planner-api/pkg/response"
)

type planGenerator interface {
	Generate(ctx context.Context, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error)
	GetProposal(id string) (*dto.GeneratePlanResponse, error)
	UpdateLocks(ctx context.Context, proposalID string, req dto.UpdateLocksRequest) (*dto.GeneratePlanResponse, error)
}

// PlanHandler exposes plan generation endpoints.
type PlanHandler struct {
	service planGenerator
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{service: svc}
}

// Generate godoc
// @Summary Generate ranked schedule proposals for a student and term
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Plan generation payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan generation payload"))
		return
	}
	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Get godoc
// @Summary Fetch a previously generated plan proposal
// @Tags Plans
// @Produce json
// @Param proposalId path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{proposalId} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	resp, err := h.service.GetProposal(c.Param("proposalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// UpdateLocks godoc
// @Summary Replace the locked sections of a proposal and regenerate
// @Tags Plans
// @Accept json
// @Produce json
// @Param proposalId path string true "Proposal ID"
// @Param payload body dto.UpdateLocksRequest true "Lock update payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{proposalId}/locks [put]
func (h *PlanHandler) UpdateLocks(c *gin.Context) {
	var req dto.UpdateLocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lock update payload"))
		return
	}
	resp, err := h.service.UpdateLocks(c.Request.Context(), c.Param("proposalId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
