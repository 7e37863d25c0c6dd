package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/repository"
	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
)

// memoryUserRepo is a map-backed identity store enforcing the same unique
// constraints as the schema.
type memoryUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog

	createErr    error
	findErr      error
	auditErr     error
	revokedUsers []string
	// beforeCreate runs ahead of the insert, used to simulate a concurrent writer.
	beforeCreate func()
}

func newMemoryUserRepo(users ...*models.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: map[string]*models.User{}, refreshTokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *memoryUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if match(u) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m *memoryUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memoryUserRepo) FindByNationalCode(ctx context.Context, code string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.NationalCode == code })
}

func (m *memoryUserRepo) FindClientByNationalCode(ctx context.Context, code string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.NationalCode == code && u.Role == models.RoleClient })
}

func (m *memoryUserRepo) FindClientByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id && u.Role == models.RoleClient })
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.NationalCode == user.NationalCode {
			return &repository.DuplicateError{Constraint: repository.ConstraintNationalCode}
		}
		if u.Username == user.Username {
			return &repository.DuplicateError{Constraint: repository.ConstraintUsername}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *memoryUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.findErr != nil {
		return nil, 0, m.findErr
	}
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (m *memoryUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		u.UpdatedAt = updatedAt
	}
	return nil
}

func (m *memoryUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memoryUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *memoryUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *memoryUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *memoryUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if m.auditErr != nil {
		return m.auditErr
	}
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func (m *memoryUserRepo) count() int { return len(m.users) }

// memoryAssessmentRepo stores assessments and resolves names from the user repo.
type memoryAssessmentRepo struct {
	users       *memoryUserRepo
	assessments map[string]*models.Assessment
	order       []string
	findCalls   int
	createErr   error
}

func newMemoryAssessmentRepo(users *memoryUserRepo) *memoryAssessmentRepo {
	return &memoryAssessmentRepo{users: users, assessments: map[string]*models.Assessment{}}
}

func (m *memoryAssessmentRepo) Create(ctx context.Context, a *models.Assessment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users.users[a.ClientID]; !ok {
		return repository.ErrReferenceMissing
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	copy := *a
	m.assessments[a.ID] = &copy
	m.order = append(m.order, a.ID)
	return nil
}

func (m *memoryAssessmentRepo) detail(a *models.Assessment) models.AssessmentDetail {
	d := models.AssessmentDetail{Assessment: *a}
	if c, ok := m.users.users[a.ClientID]; ok {
		d.ClientName = c.FullName
		d.ClientNationalCode = c.NationalCode
	}
	if cb, ok := m.users.users[a.CreatedByID]; ok {
		d.CreatedByName = cb.FullName
	}
	if a.AssessorID != nil {
		if asr, ok := m.users.users[*a.AssessorID]; ok {
			name := asr.FullName
			d.AssessorName = &name
		}
	}
	return d
}

func (m *memoryAssessmentRepo) FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	m.findCalls++
	a, ok := m.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := m.detail(a)
	return &d, nil
}

func (m *memoryAssessmentRepo) ListByClient(ctx context.Context, clientID string, page, pageSize int) ([]models.AssessmentDetail, int, error) {
	var out []models.AssessmentDetail
	for i := len(m.order) - 1; i >= 0; i-- {
		a := m.assessments[m.order[i]]
		if a.ClientID == clientID {
			out = append(out, m.detail(a))
		}
	}
	return out, len(out), nil
}

// memoryCache is an in-process CacheRepository.
type memoryCache struct {
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return jsonUnmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := jsonMarshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	return nil
}
