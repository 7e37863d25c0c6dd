package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-intake-api/pkg/response"
)

// AssessmentHandler serves stored assessments.
type AssessmentHandler struct {
	service intakeService
}

// NewAssessmentHandler constructs an AssessmentHandler.
func NewAssessmentHandler(svc intakeService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// Get godoc
// @Summary Get assessment
// @Description Returns every stored field of an assessment with client, creator and assessor names
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.GetAssessment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Export godoc
// @Summary Export assessment
// @Tags Assessments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Assessment ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /assessments/{id}/export [get]
func (h *AssessmentHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.service.ExportAssessment(c.Request.Context(), actor, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, file.ContentType, file.Filename, file.Payload)
}
