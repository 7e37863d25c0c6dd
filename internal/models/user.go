package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleTherapist UserRole = "THERAPIST"
	RoleAssessor  UserRole = "ASSESSOR"
	RoleClient    UserRole = "CLIENT"
)

// StaffRoles lists the roles allowed to run the intake workflow.
var StaffRoles = []UserRole{RoleAdmin, RoleTherapist, RoleAssessor}

// IsStaff reports whether the role belongs to practice staff.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleTherapist, RoleAssessor:
		return true
	}
	return false
}

// CanAssess reports whether the role may be recorded as an assessor.
func (r UserRole) CanAssess() bool {
	return r == RoleTherapist || r == RoleAssessor
}

// Gender enumerates the values accepted for an identity's gender.
type Gender string

const (
	GenderFemale Gender = "F"
	GenderMale   Gender = "M"
	GenderOther  Gender = "O"
)

// Valid reports whether g is a known gender code.
func (g Gender) Valid() bool {
	return g == GenderFemale || g == GenderMale || g == GenderOther
}

// User is an identity record for staff and clients alike.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	NationalCode string     `db:"national_code" json:"national_code"`
	FullName     string     `db:"full_name" json:"full_name"`
	DateOfBirth  time.Time  `db:"date_of_birth" json:"date_of_birth"`
	Gender       Gender     `db:"gender" json:"gender"`
	Role         UserRole   `db:"role" json:"role"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Email        string     `db:"email" json:"email,omitempty"`
	Bio          string     `db:"bio" json:"bio,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Actor returns the acting identity view of the user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Actor is the authenticated identity performing an operation. Workflow
// operations receive it explicitly instead of reading request state.
type Actor struct {
	ID   string
	Role UserRole
}

// IsZero reports whether no identity is bound.
func (a Actor) IsZero() bool {
	return a.ID == ""
}
