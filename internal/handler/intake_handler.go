package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-intake-api/internal/dto"
	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/service"
	"github.com/noah-isme/talent-intake-api/pkg/response"
)

type intakeService interface {
	SearchClient(ctx context.Context, actor models.Actor, nationalCode string) (*dto.SearchClientResult, error)
	ClientFormDefaults(actor models.Actor, nationalCode string) (*dto.ClientFormDefaults, error)
	CreateClient(ctx context.Context, actor models.Actor, req dto.CreateClientRequest, meta models.RequestMeta) (*dto.ClientResult, error)
	CreateAssessment(ctx context.Context, actor models.Actor, clientID string, req dto.CreateAssessmentRequest, meta models.RequestMeta) (*dto.AssessmentResult, error)
	ListClientAssessments(ctx context.Context, actor models.Actor, clientID string, page, pageSize int) ([]models.AssessmentDetail, int, error)
	GetAssessment(ctx context.Context, actor models.Actor, id string) (*models.AssessmentDetail, error)
	ExportAssessment(ctx context.Context, actor models.Actor, id, format string) (*service.ExportFile, error)
}

// IntakeHandler serves the client intake journey.
type IntakeHandler struct {
	service intakeService
}

// NewIntakeHandler constructs an IntakeHandler.
func NewIntakeHandler(svc intakeService) *IntakeHandler {
	return &IntakeHandler{service: svc}
}

// Search godoc
// @Summary Search client by national code
// @Description Resolve a national code to ASSESS_CLIENT (client found) or CREATE_CLIENT
// @Tags Intake
// @Accept json
// @Produce json
// @Param payload body dto.SearchClientRequest true "National code"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /intake/search [post]
func (h *IntakeHandler) Search(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SearchClientRequest
	if !bindJSON(c, &req, "invalid search payload") {
		return
	}

	res, err := h.service.SearchClient(c.Request.Context(), actor, req.NationalCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// NewClientForm godoc
// @Summary Client form defaults
// @Description Returns the create-client form pre-filled with a national code and its field rules
// @Tags Intake
// @Produce json
// @Param national_code query string false "National code to pre-fill"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /intake/clients/new [get]
func (h *IntakeHandler) NewClientForm(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.ClientFormDefaults(actor, c.Query("national_code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CreateClient godoc
// @Summary Create client
// @Description Register a client identity; username defaults to client_<national_code>
// @Tags Intake
// @Accept json
// @Produce json
// @Param payload body dto.CreateClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /intake/clients [post]
func (h *IntakeHandler) CreateClient(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if !bindJSON(c, &req, "invalid client payload") {
		return
	}

	res, err := h.service.CreateClient(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// CreateAssessment godoc
// @Summary Record assessment
// @Description Record a talent assessment for a client; the caller becomes creator and, for therapists and assessors, assessor
// @Tags Intake
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body dto.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /intake/clients/{id}/assessments [post]
func (h *IntakeHandler) CreateAssessment(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateAssessmentRequest
	if !bindJSON(c, &req, "invalid assessment payload") {
		return
	}

	res, err := h.service.CreateAssessment(c.Request.Context(), actor, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListAssessments godoc
// @Summary List client assessments
// @Tags Intake
// @Produce json
// @Param id path string true "Client ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /intake/clients/{id}/assessments [get]
func (h *IntakeHandler) ListAssessments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	page, size := pageParams(c)

	items, total, err := h.service.ListClientAssessments(c.Request.Context(), actor, c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, &response.Pagination{Page: page, PageSize: size, TotalCount: total})
}
