package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-intake-api/internal/dto"
	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/repository"
	"github.com/noah-isme/talent-intake-api/internal/validation"
	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
)

type clientRepository interface {
	FindByNationalCode(ctx context.Context, code string) (*models.User, error)
	FindClientByNationalCode(ctx context.Context, code string) (*models.User, error)
	FindClientByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type assessmentRepository interface {
	Create(ctx context.Context, a *models.Assessment) error
	FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error)
	ListByClient(ctx context.Context, clientID string, page, pageSize int) ([]models.AssessmentDetail, int, error)
}

// IntakeConfig tunes the intake workflow.
type IntakeConfig struct {
	ClientUsernamePrefix string
	CacheTTL             time.Duration
	ExportTitle          string
}

// IntakeService drives the client intake journey: search by national code,
// create the client when absent, record assessments and read them back.
type IntakeService struct {
	users       clientRepository
	assessments assessmentRepository
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         IntakeConfig
}

// NewIntakeService constructs an IntakeService. cache and metrics may be nil.
func NewIntakeService(users clientRepository, assessments assessmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg IntakeConfig) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	validation.Register(validate)
	if cfg.ClientUsernamePrefix == "" {
		cfg.ClientUsernamePrefix = "client_"
	}
	if cfg.ExportTitle == "" {
		cfg.ExportTitle = "Talent Assessment"
	}
	return &IntakeService{
		users:       users,
		assessments: assessments,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// SearchClient resolves a national code to the next intake step.
func (s *IntakeService) SearchClient(ctx context.Context, actor models.Actor, nationalCode string) (*dto.SearchClientResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	req := dto.SearchClientRequest{NationalCode: nationalCode}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid national code")
	}
	code := validation.NormalizeNationalCode(nationalCode)

	client, err := s.users.FindClientByNationalCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordIntakeEvent(EventClientMissing)
			return &dto.SearchClientResult{Found: false, Next: dto.StepCreateClient, NationalCode: code}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search client")
	}

	s.metrics.RecordIntakeEvent(EventClientFound)
	return &dto.SearchClientResult{Found: true, Next: dto.StepAssessClient, NationalCode: code, Client: client}, nil
}

// ClientFormDefaults returns the create-client form pre-filled with the code
// carried over from a failed search. Invalid codes are not pre-filled.
func (s *IntakeService) ClientFormDefaults(actor models.Actor, nationalCode string) (*dto.ClientFormDefaults, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	defaults := &dto.ClientFormDefaults{
		Role:  models.RoleClient,
		Rules: validation.Rules(dto.CreateClientRequest{}),
	}
	if code := validation.NormalizeNationalCode(nationalCode); validation.IsNationalCode(code) {
		defaults.NationalCode = code
	}
	return defaults, nil
}

// CreateClient registers a new client identity.
func (s *IntakeService) CreateClient(ctx context.Context, actor models.Actor, req dto.CreateClientRequest, meta models.RequestMeta) (*dto.ClientResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid client payload")
	}

	client, err := buildIdentity(identityFields{
		Username:     req.Username,
		NationalCode: req.NationalCode,
		Phone:        req.Phone,
		FullName:     req.FullName,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Email:        req.Email,
		Bio:          req.Bio,
	})
	if err != nil {
		return nil, err
	}
	client.Role = models.RoleClient
	client.Active = true
	if client.Username == "" {
		client.Username = s.cfg.ClientUsernamePrefix + client.NationalCode
	}

	existing, err := s.users.FindByNationalCode(ctx, client.NationalCode)
	switch {
	case err == nil:
		return nil, s.nationalCodeTaken(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check national code")
	}

	if err := s.users.Create(ctx, client); err != nil {
		return nil, s.createClientFailure(ctx, client.NationalCode, err)
	}
	s.metrics.RecordIntakeEvent(EventClientCreated)

	payload, _ := json.Marshal(map[string]string{"username": client.Username, "national_code": client.NationalCode})
	s.audit(ctx, &models.AuditLog{
		UserID:     &actor.ID,
		Action:     models.AuditActionClientCreate,
		Resource:   "client",
		ResourceID: &client.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	s.logger.Info("client created", zap.String("client_id", client.ID), zap.String("actor_id", actor.ID))

	return &dto.ClientResult{Client: client, Next: dto.StepAssessClient}, nil
}

// createClientFailure maps an insert failure. A national code taken between
// the pre-check and the insert is resolved against the identity that won.
func (s *IntakeService) createClientFailure(ctx context.Context, code string, err error) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) && dup.Constraint == repository.ConstraintNationalCode {
		existing, lookupErr := s.users.FindByNationalCode(ctx, code)
		if lookupErr == nil {
			return s.nationalCodeTaken(existing)
		}
		s.logger.Warn("failed to resolve conflicting national code", zap.Error(lookupErr))
	}
	if conflict, ok := duplicateIdentity(err); ok {
		s.metrics.RecordIntakeEvent(EventClientConflict)
		return conflict
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
}

// nationalCodeTaken reports an existing holder of a national code. When the
// holder is a client the operator can continue with it.
func (s *IntakeService) nationalCodeTaken(existing *models.User) error {
	s.metrics.RecordIntakeEvent(EventClientConflict)
	if existing.Role != models.RoleClient {
		return appErrors.WithFields(appErrors.ErrConflict, "national code already registered", map[string]string{
			"national_code": "an identity with this national code already exists",
		})
	}
	conflict := appErrors.WithFields(appErrors.ErrClientExists, "", map[string]string{
		"national_code": "a client with this national code already exists",
	})
	conflict.Details = map[string]string{"client_id": existing.ID, "next": string(dto.StepAssessClient)}
	return conflict
}

// CreateAssessment records an assessment for an existing client. The actor
// becomes the creator and, for therapists and assessors, the assessor.
func (s *IntakeService) CreateAssessment(ctx context.Context, actor models.Actor, clientID string, req dto.CreateAssessmentRequest, meta models.RequestMeta) (*dto.AssessmentResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailure(err, "invalid assessment payload")
	}
	date, err := validation.ParseDate(req.AssessmentDate)
	if err != nil {
		return nil, appErrors.Validation("invalid assessment date", map[string]string{"assessment_date": "must be a date formatted YYYY-MM-DD"})
	}

	clientID, ok := canonicalID(clientID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
	}
	client, err := s.users.FindClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	assessment := &models.Assessment{
		ClientID:         client.ID,
		CreatedByID:      actor.ID,
		AssessorID:       AssessorFor(actor),
		AssessmentDate:   date,
		CoachMotor:       *req.CoachMotor,
		CoachCognitive:   *req.CoachCognitive,
		CoachSocial:      *req.CoachSocial,
		CoachEmotional:   *req.CoachEmotional,
		CoachTotalScore:  req.CoachTotalScore,
		ParentMotor:      *req.ParentMotor,
		ParentCognitive:  *req.ParentCognitive,
		ParentSocial:     *req.ParentSocial,
		ParentEmotional:  *req.ParentEmotional,
		ParentTotalScore: *req.ParentTotalScore,
		MotorPeer:        models.PeerStanding(req.MotorPeer),
		CognitivePeer:    models.PeerStanding(req.CognitivePeer),
		SocialPeer:       models.PeerStanding(req.SocialPeer),
		EmotionalPeer:    models.PeerStanding(req.EmotionalPeer),
		Notes:            req.Notes,
	}

	start := time.Now()
	err = s.assessments.Create(ctx, assessment)
	s.metrics.ObserveDBQuery("assessment_create", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client or staff identity no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}

	_ = s.cache.Invalidate(ctx, clientAssessmentsCachePattern(client.ID))
	s.metrics.RecordIntakeEvent(EventAssessmentCreated)

	payload, _ := json.Marshal(map[string]string{"client_id": client.ID, "assessment_date": req.AssessmentDate})
	s.audit(ctx, &models.AuditLog{
		UserID:     &actor.ID,
		Action:     models.AuditActionAssessmentCreate,
		Resource:   "assessment",
		ResourceID: &assessment.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})

	return &dto.AssessmentResult{Assessment: assessment, Next: dto.StepDetail}, nil
}

// GetAssessment returns a stored assessment with the referenced names.
func (s *IntakeService) GetAssessment(ctx context.Context, actor models.Actor, id string) (*models.AssessmentDetail, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	id, ok := canonicalID(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
	}

	key := assessmentCacheKey(id)
	var cached models.AssessmentDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	detail, err := s.assessments.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("assessment_find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}

	_ = s.cache.Set(ctx, key, detail, s.cfg.CacheTTL)
	return detail, nil
}

type assessmentPage struct {
	Items []models.AssessmentDetail `json:"items"`
	Total int                       `json:"total"`
}

// ListClientAssessments returns a client's assessment history, newest first.
func (s *IntakeService) ListClientAssessments(ctx context.Context, actor models.Actor, clientID string, page, pageSize int) ([]models.AssessmentDetail, int, error) {
	if err := requireStaff(actor); err != nil {
		return nil, 0, err
	}
	clientID, ok := canonicalID(clientID)
	if !ok {
		return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "client not found")
	}
	if _, err := s.users.FindClientByID(ctx, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	key := clientAssessmentsCacheKey(clientID, page, pageSize)
	var cached assessmentPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Total, nil
	}

	start := time.Now()
	items, total, err := s.assessments.ListByClient(ctx, clientID, page, pageSize)
	s.metrics.ObserveDBQuery("assessment_list", time.Since(start))
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	if items == nil {
		items = []models.AssessmentDetail{}
	}

	_ = s.cache.Set(ctx, key, assessmentPage{Items: items, Total: total}, s.cfg.CacheTTL)
	return items, total, nil
}

func (s *IntakeService) audit(ctx context.Context, entry *models.AuditLog) {
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func requireStaff(actor models.Actor) error {
	if actor.IsZero() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !actor.Role.IsStaff() {
		return appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	return nil
}
