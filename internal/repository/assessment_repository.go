package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/pkg/database"
)

// ErrReferenceMissing reports that an assessment referenced an identity
// that does not exist.
var ErrReferenceMissing = errors.New("referenced identity does not exist")

const assessmentDetailSelect = `SELECT a.id, a.client_id, a.created_by_id, a.assessor_id, a.assessment_date,
        a.coach_motor, a.coach_cognitive, a.coach_social, a.coach_emotional, a.coach_total_score,
        a.parent_motor, a.parent_cognitive, a.parent_social, a.parent_emotional, a.parent_total_score,
        a.motor_peer, a.cognitive_peer, a.social_peer, a.emotional_peer, a.notes, a.created_at,
        c.full_name AS client_name, c.national_code AS client_national_code,
        cb.full_name AS created_by_name, asr.full_name AS assessor_name
        FROM talent_assessments a
        JOIN users c ON c.id = a.client_id
        JOIN users cb ON cb.id = a.created_by_id
        LEFT JOIN users asr ON asr.id = a.assessor_id`

// AssessmentRepository manages persistence for talent assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts an assessment. created_at is assigned here and never updated.
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO talent_assessments (id, client_id, created_by_id, assessor_id, assessment_date,
        coach_motor, coach_cognitive, coach_social, coach_emotional, coach_total_score,
        parent_motor, parent_cognitive, parent_social, parent_emotional, parent_total_score,
        motor_peer, cognitive_peer, social_peer, emotional_peer, notes, created_at)
        VALUES (:id, :client_id, :created_by_id, :assessor_id, :assessment_date,
        :coach_motor, :coach_cognitive, :coach_social, :coach_emotional, :coach_total_score,
        :parent_motor, :parent_cognitive, :parent_social, :parent_emotional, :parent_total_score,
        :motor_peer, :cognitive_peer, :social_peer, :emotional_peer, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		if database.ForeignKeyViolation(err) {
			return fmt.Errorf("create assessment: %w", ErrReferenceMissing)
		}
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// FindByID fetches an assessment joined with the referenced identity names.
// An id the uuid column cannot parse is reported as sql.ErrNoRows.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	query := assessmentDetailSelect + ` WHERE a.id = $1`
	var detail models.AssessmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.InvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return &detail, nil
}

// ListByClient returns a client's assessments, most recent first.
func (r *AssessmentRepository) ListByClient(ctx context.Context, clientID string, page, pageSize int) ([]models.AssessmentDetail, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("%s WHERE a.client_id = $1 ORDER BY a.assessment_date DESC, a.created_at DESC LIMIT %d OFFSET %d", assessmentDetailSelect, pageSize, offset)
	var items []models.AssessmentDetail
	if err := r.db.SelectContext(ctx, &items, query, clientID); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM talent_assessments WHERE client_id = $1`, clientID); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}
	return items, total, nil
}
