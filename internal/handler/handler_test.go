package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-intake-api/internal/dto"
	"github.com/noah-isme/talent-intake-api/internal/middleware"
	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/service"
	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

var therapistClaims = &models.JWTClaims{UserID: "therapist", Role: models.RoleTherapist}

type fakeIntakeService struct {
	lastActor    models.Actor
	lastClientID string
	lastCode     string
	lastPage     int
	lastFormat   string

	search     *dto.SearchClientResult
	client     *dto.ClientResult
	assessment *dto.AssessmentResult
	detail     *models.AssessmentDetail
	items      []models.AssessmentDetail
	file       *service.ExportFile
	err        error
}

func (f *fakeIntakeService) SearchClient(_ context.Context, actor models.Actor, code string) (*dto.SearchClientResult, error) {
	f.lastActor, f.lastCode = actor, code
	return f.search, f.err
}

func (f *fakeIntakeService) ClientFormDefaults(actor models.Actor, code string) (*dto.ClientFormDefaults, error) {
	f.lastActor, f.lastCode = actor, code
	return &dto.ClientFormDefaults{NationalCode: code, Role: models.RoleClient}, f.err
}

func (f *fakeIntakeService) CreateClient(_ context.Context, actor models.Actor, req dto.CreateClientRequest, _ models.RequestMeta) (*dto.ClientResult, error) {
	f.lastActor, f.lastCode = actor, req.NationalCode
	return f.client, f.err
}

func (f *fakeIntakeService) CreateAssessment(_ context.Context, actor models.Actor, clientID string, _ dto.CreateAssessmentRequest, _ models.RequestMeta) (*dto.AssessmentResult, error) {
	f.lastActor, f.lastClientID = actor, clientID
	return f.assessment, f.err
}

func (f *fakeIntakeService) ListClientAssessments(_ context.Context, actor models.Actor, clientID string, page, _ int) ([]models.AssessmentDetail, int, error) {
	f.lastActor, f.lastClientID, f.lastPage = actor, clientID, page
	return f.items, len(f.items), f.err
}

func (f *fakeIntakeService) GetAssessment(_ context.Context, actor models.Actor, id string) (*models.AssessmentDetail, error) {
	f.lastActor = actor
	return f.detail, f.err
}

func (f *fakeIntakeService) ExportAssessment(_ context.Context, actor models.Actor, id, format string) (*service.ExportFile, error) {
	f.lastActor, f.lastFormat = actor, format
	return f.file, f.err
}

func TestIntakeHandlerSearchNotFoundNextStep(t *testing.T) {
	svc := &fakeIntakeService{search: &dto.SearchClientResult{Found: false, Next: dto.StepCreateClient, NationalCode: "1234567890"}}
	h := NewIntakeHandler(svc)

	c, rec := newContext(http.MethodPost, "/intake/search", map[string]string{"national_code": "1234567890"}, therapistClaims)
	h.Search(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1234567890", svc.lastCode)
	assert.Equal(t, "therapist", svc.lastActor.ID)
	var result dto.SearchClientResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, dto.StepCreateClient, result.Next)
}

func TestIntakeHandlerRequiresClaims(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeService{})
	c, rec := newContext(http.MethodPost, "/intake/search", map[string]string{"national_code": "1234567890"}, nil)
	h.Search(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIntakeHandlerMalformedJSON(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeService{})
	c, rec := newContext(http.MethodPost, "/intake/clients", `{"national_code":`, therapistClaims)
	h.CreateClient(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestIntakeHandlerWrongTypeNamesField(t *testing.T) {
	svc := &fakeIntakeService{}
	h := NewIntakeHandler(svc)
	c, rec := newContext(http.MethodPost, "/intake/clients/c1/assessments", `{"coach_motor":"abc"}`, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.CreateAssessment(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Equal(t, "must be a whole number", env.Error.Fields["coach_motor"])
	assert.Empty(t, svc.lastClientID)

	c, rec = newContext(http.MethodPost, "/intake/clients/c1/assessments", `{"parent_total_score":"high"}`, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.CreateAssessment(c)
	assert.Equal(t, "must be a number", decodeEnvelope(t, rec).Error.Fields["parent_total_score"])
}

func TestIntakeHandlerCreateClientConflict(t *testing.T) {
	conflict := appErrors.WithFields(appErrors.ErrClientExists, "", map[string]string{"national_code": "a client with this national code already exists"})
	conflict.Details = map[string]string{"client_id": "c1"}
	h := NewIntakeHandler(&fakeIntakeService{err: conflict})

	c, rec := newContext(http.MethodPost, "/intake/clients", map[string]string{"national_code": "1234567890"}, therapistClaims)
	h.CreateClient(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "CLIENT_EXISTS", env.Error.Code)
	assert.Equal(t, "c1", env.Error.Details["client_id"])
	assert.Contains(t, env.Error.Fields, "national_code")
}

func TestIntakeHandlerCreateAssessment(t *testing.T) {
	svc := &fakeIntakeService{assessment: &dto.AssessmentResult{Assessment: &models.Assessment{ID: "a1"}, Next: dto.StepDetail}}
	h := NewIntakeHandler(svc)

	c, rec := newContext(http.MethodPost, "/intake/clients/c1/assessments", map[string]interface{}{"coach_motor": 10}, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.CreateAssessment(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c1", svc.lastClientID)
}

func TestIntakeHandlerListAssessmentsPagination(t *testing.T) {
	svc := &fakeIntakeService{items: []models.AssessmentDetail{{}, {}}}
	h := NewIntakeHandler(svc)

	c, rec := newContext(http.MethodGet, "/intake/clients/c1/assessments?page=2", nil, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	h.ListAssessments(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastPage)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 2, env.Pagination["total_count"])
}

func TestIntakeHandlerNewClientForm(t *testing.T) {
	svc := &fakeIntakeService{}
	h := NewIntakeHandler(svc)

	c, rec := newContext(http.MethodGet, "/intake/clients/new?national_code=1234567890", nil, therapistClaims)
	h.NewClientForm(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1234567890", svc.lastCode)
}

func TestAssessmentHandlerGetNotFound(t *testing.T) {
	h := NewAssessmentHandler(&fakeIntakeService{err: appErrors.Clone(appErrors.ErrNotFound, "assessment not found")})

	c, rec := newContext(http.MethodGet, "/assessments/missing", nil, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssessmentHandlerExport(t *testing.T) {
	svc := &fakeIntakeService{file: &service.ExportFile{Filename: "assessment-a1.csv", ContentType: "text/csv; charset=utf-8", Payload: []byte("field,value\n")}}
	h := NewAssessmentHandler(svc)

	c, rec := newContext(http.MethodGet, "/assessments/a1/export?format=csv", nil, therapistClaims)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.lastFormat)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "assessment-a1.csv")
	assert.Equal(t, "field,value\n", rec.Body.String())
}

func TestAssessmentHandlerInternalErrorHidesCause(t *testing.T) {
	h := NewAssessmentHandler(&fakeIntakeService{err: errors.New("pq: connection refused")})

	c, rec := newContext(http.MethodGet, "/assessments/a1", nil, therapistClaims)
	h.Get(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

type fakeAuthService struct {
	registerReq models.RegisterRequest
	loginRes    *models.LoginResponse
	user        *models.User
	err         error
}

func (f *fakeAuthService) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	f.registerReq = req
	return f.loginRes, f.err
}

func (f *fakeAuthService) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return f.loginRes, f.err
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "a"}, f.err
}

func (f *fakeAuthService) Logout(context.Context, string, string, models.RequestMeta) error {
	return f.err
}

func (f *fakeAuthService) Profile(context.Context, string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeAuthService) ChangePassword(context.Context, string, models.ChangePasswordRequest) error {
	return f.err
}

func TestAuthHandlerRegister(t *testing.T) {
	svc := &fakeAuthService{loginRes: &models.LoginResponse{AccessToken: "token"}}
	h := NewAuthHandler(svc)

	c, rec := newContext(http.MethodPost, "/auth/register", map[string]string{"username": "maryam", "password": "s3cret-pass"}, nil)
	c.Request.Header.Set("User-Agent", "test-agent")
	h.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "maryam", svc.registerReq.Username)
	assert.Equal(t, "test-agent", svc.registerReq.UserAgent)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{err: appErrors.ErrInvalidCredentials})

	c, rec := newContext(http.MethodPost, "/auth/login", map[string]string{"username": "x", "password": "y"}, nil)
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{user: &models.User{ID: "therapist", Username: "maryam", PasswordHash: "secret-hash"}})

	c, rec := newContext(http.MethodGet, "/auth/me", nil, therapistClaims)
	h.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestAuthHandlerLogoutNoContent(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{})
	c, _ := newContext(http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "rt"}, therapistClaims)
	h.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
}

type fakeUserService struct {
	filter models.UserFilter
}

func (f *fakeUserService) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	f.filter = filter
	return []models.User{{ID: "1"}}, 1, nil
}

func (f *fakeUserService) Get(_ context.Context, id string) (*models.User, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func TestUserHandlerListParsesFilters(t *testing.T) {
	svc := &fakeUserService{}
	h := NewUserHandler(svc)

	c, rec := newContext(http.MethodGet, "/users?role=CLIENT&active=true&search=sara&page_size=500", nil, nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.Role)
	assert.Equal(t, models.RoleClient, *svc.filter.Role)
	require.NotNil(t, svc.filter.Active)
	assert.True(t, *svc.filter.Active)
	assert.Equal(t, "sara", svc.filter.Search)
	assert.Equal(t, defaultPageSize, svc.filter.PageSize)
}

func TestUserHandlerGetNotFound(t *testing.T) {
	h := NewUserHandler(&fakeUserService{})
	c, rec := newContext(http.MethodGet, "/users/x", nil, nil)
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(nil, map[string]Pinger{"database": PingFunc(func(context.Context) error { return nil })})
	c, rec := newContext(http.MethodGet, "/ready", nil, nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := NewMetricsHandler(nil, map[string]Pinger{"cache": PingFunc(func(context.Context) error { return errors.New("dial tcp: refused") })})
	c, rec = newContext(http.MethodGet, "/ready", nil, nil)
	broken.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordIntakeEvent(service.EventClientCreated)
	h := NewMetricsHandler(metrics, nil)

	c, rec := newContext(http.MethodGet, "/metrics", nil, nil)
	h.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `intake_events_total{event="client_created"} 1`)
}
