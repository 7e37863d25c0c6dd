package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-intake-api/internal/models"
)

var userColumnNames = []string{"id", "username", "password_hash", "national_code", "full_name", "date_of_birth", "gender", "role", "phone", "email", "bio", "active", "last_login", "created_at", "updated_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func clientRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userColumnNames).
		AddRow("c1", "client_1234567890", "", "1234567890", "Sara Client", now, "F", string(models.RoleClient), "09121234567", "", "", true, nil, now, now)
}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumnNames).
		AddRow("1", "maryam", "hash", "0012345678", "Maryam", now, "F", string(models.RoleTherapist), "09120000000", "m@example.com", "", true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("maryam").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "maryam")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTherapist, user.Role)
	assert.Equal(t, "0012345678", user.NationalCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindClientByNationalCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE role = $1 AND national_code = $2 LIMIT 1")).
		WithArgs(models.RoleClient, "1234567890").
		WillReturnRows(clientRow(time.Now()))

	user, err := repo.FindClientByNationalCode(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "c1", user.ID)
	assert.Equal(t, models.RoleClient, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindClientByNationalCodeNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE role = \\$1 AND national_code = \\$2").
		WithArgs(models.RoleClient, "1234567890").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	_, err := repo.FindClientByNationalCode(context.Background(), "1234567890")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindClientByIDMalformedUUID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id = \\$1 AND role = \\$2").
		WithArgs("client:abc", models.RoleClient).
		WillReturnError(&pq.Error{Code: "22P02"})

	_, err := repo.FindClientByID(context.Background(), "client:abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDWrapsDriverErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id = \\$1").WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, err.Error(), "find user by id")
}

func TestCreateUserAssignsIdentifiers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "client_1234567890", NationalCode: "1234567890", FullName: "Sara", Gender: models.GenderFemale, Role: models.RoleClient, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateNationalCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: ConstraintNationalCode})

	err := repo.Create(context.Background(), &models.User{NationalCode: "1234567890"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, ConstraintNationalCode, dup.Constraint)
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleClient
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE 1=1 AND role = $1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs(role).
		WillReturnRows(clientRow(time.Now()))

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).WithArgs(role).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role, SortBy: "full_name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20 OFFSET 20")).
		WillReturnRows(sqlmock.NewRows(userColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.UserFilter{SortBy: "password_hash; DROP TABLE users", Page: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
