package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/validation"
	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
	"github.com/noah-isme/talent-intake-api/pkg/export"
)

// ExportFile is a rendered assessment ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportAssessment renders a stored assessment as CSV or PDF.
func (s *IntakeService) ExportAssessment(ctx context.Context, actor models.Actor, id, format string) (*ExportFile, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Validation("unsupported export format", map[string]string{"format": "must be one of csv, pdf"})
	}

	detail, err := s.GetAssessment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	renderer := export.RendererFor(parsed)
	payload, err := renderer.Render(assessmentDataset(s.cfg.ExportTitle, detail))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render assessment")
	}
	s.metrics.RecordIntakeEvent(EventAssessmentExport)

	return &ExportFile{
		Filename:    fmt.Sprintf("assessment-%s.%s", detail.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

const (
	exportFieldHeader = "field"
	exportValueHeader = "value"
)

// assessmentDataset flattens an assessment into field/value rows.
func assessmentDataset(title string, d *models.AssessmentDetail) export.Dataset {
	var rows []map[string]string
	add := func(field, value string) {
		rows = append(rows, map[string]string{exportFieldHeader: field, exportValueHeader: value})
	}

	add("assessment_id", d.ID)
	add("client", d.ClientName)
	add("client_national_code", d.ClientNationalCode)
	add("assessment_date", d.AssessmentDate.Format(validation.DateLayout))
	add("created_by", d.CreatedByName)
	assessor := ""
	if d.AssessorName != nil {
		assessor = *d.AssessorName
	}
	add("assessor", assessor)

	for _, domain := range models.Domains {
		add("coach_"+string(domain), strconv.Itoa(d.CoachScore(domain)))
	}
	coachTotal := ""
	if d.CoachTotalScore != nil {
		coachTotal = formatScore(*d.CoachTotalScore)
	}
	add("coach_total_score", coachTotal)

	for _, domain := range models.Domains {
		add("parent_"+string(domain), strconv.Itoa(d.ParentScore(domain)))
	}
	add("parent_total_score", formatScore(d.ParentTotalScore))

	for _, domain := range models.Domains {
		peer := d.Peer(domain)
		add(string(domain)+"_peer", fmt.Sprintf("%s (%s)", peer, peer.Label()))
	}
	add("notes", d.Notes)

	return export.Dataset{
		Title:   title,
		Headers: []string{exportFieldHeader, exportValueHeader},
		Rows:    rows,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
