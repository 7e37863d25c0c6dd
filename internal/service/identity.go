package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/talent-intake-api/internal/models"
	"github.com/noah-isme/talent-intake-api/internal/repository"
	"github.com/noah-isme/talent-intake-api/internal/validation"
	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
)

// identityFields is the profile shared by staff registration and client creation.
type identityFields struct {
	Username     string
	NationalCode string
	Phone        string
	FullName     string
	DateOfBirth  string
	Gender       string
	Email        string
	Bio          string
}

// buildIdentity turns validated form input into a user record, applying the
// normalisers. Callers set role, password and active state.
func buildIdentity(in identityFields) (*models.User, error) {
	dob, err := validation.ParseDate(in.DateOfBirth)
	if err != nil {
		return nil, appErrors.Validation("invalid date of birth", map[string]string{"date_of_birth": "must be a date formatted YYYY-MM-DD"})
	}
	return &models.User{
		Username:     strings.TrimSpace(in.Username),
		NationalCode: validation.NormalizeNationalCode(in.NationalCode),
		Phone:        validation.NormalizePhone(in.Phone),
		FullName:     strings.TrimSpace(in.FullName),
		DateOfBirth:  dob,
		Gender:       models.Gender(in.Gender),
		Email:        strings.TrimSpace(in.Email),
		Bio:          in.Bio,
	}, nil
}

// validationFailure converts a validator error into a field-level error.
func validationFailure(err error, message string) error {
	if fields := validation.FieldErrors(err); fields != nil {
		return appErrors.Validation(message, fields)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// duplicateIdentity maps a unique-constraint rejection to a conflict naming
// the offending field. ok is false for any other error.
func duplicateIdentity(err error) (*appErrors.Error, bool) {
	var dup *repository.DuplicateError
	if !errors.As(err, &dup) {
		return nil, false
	}
	switch dup.Constraint {
	case repository.ConstraintNationalCode:
		return appErrors.WithFields(appErrors.ErrConflict, "national code already registered", map[string]string{
			"national_code": "an identity with this national code already exists",
		}), true
	case repository.ConstraintUsername:
		return appErrors.WithFields(appErrors.ErrConflict, "username already taken", map[string]string{
			"username": "a user with that username already exists",
		}), true
	}
	return appErrors.Clone(appErrors.ErrConflict, "identity already exists"), true
}

// canonicalID parses a path identifier as a UUID and returns its canonical
// form. Identifiers that cannot name a stored row report ok=false.
func canonicalID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
