package dto

import "github.com/noah-isme/talent-intake-api/internal/models"

// IntakeStep names the next state of the client intake journey.
type IntakeStep string

const (
	StepCreateClient IntakeStep = "CREATE_CLIENT"
	StepAssessClient IntakeStep = "ASSESS_CLIENT"
	StepDetail       IntakeStep = "DETAIL"
)

// SearchClientRequest starts the intake journey.
type SearchClientRequest struct {
	NationalCode string `json:"national_code" validate:"required,national_code"`
}

// SearchClientResult resolves a national code to the next step. Client is
// set only when Found is true; NationalCode is the normalised code to
// pre-fill the client form with.
type SearchClientResult struct {
	Found        bool         `json:"found"`
	Next         IntakeStep   `json:"next"`
	NationalCode string       `json:"national_code"`
	Client       *models.User `json:"client,omitempty"`
}

// ClientFormDefaults pre-fills the create-client form and describes its rules.
type ClientFormDefaults struct {
	NationalCode string            `json:"national_code,omitempty"`
	Role         models.UserRole   `json:"role"`
	Rules        map[string]string `json:"rules"`
}

// CreateClientRequest captures a new client identity.
type CreateClientRequest struct {
	Username     string `json:"username" validate:"omitempty,min=3,max=150"`
	NationalCode string `json:"national_code" validate:"required,national_code"`
	Phone        string `json:"phone" validate:"omitempty,max=20,phone"`
	FullName     string `json:"full_name" validate:"required,max=150"`
	DateOfBirth  string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender       string `json:"gender" validate:"required,gender"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Bio          string `json:"bio" validate:"max=4000"`
}

// ClientResult is returned once a client identity exists.
type ClientResult struct {
	Client *models.User `json:"client"`
	Next   IntakeStep   `json:"next"`
}

// CreateAssessmentRequest captures the talent assessment form. Scores are
// pointers so that an explicit zero is distinguishable from a missing value.
type CreateAssessmentRequest struct {
	AssessmentDate string `json:"assessment_date" validate:"required,datetime=2006-01-02"`

	CoachMotor      *int     `json:"coach_motor" validate:"required,min=0,max=32767"`
	CoachCognitive  *int     `json:"coach_cognitive" validate:"required,min=0,max=32767"`
	CoachSocial     *int     `json:"coach_social" validate:"required,min=0,max=32767"`
	CoachEmotional  *int     `json:"coach_emotional" validate:"required,min=0,max=32767"`
	CoachTotalScore *float64 `json:"coach_total_score" validate:"omitempty,min=0"`

	ParentMotor      *int     `json:"parent_motor" validate:"required,min=0,max=32767"`
	ParentCognitive  *int     `json:"parent_cognitive" validate:"required,min=0,max=32767"`
	ParentSocial     *int     `json:"parent_social" validate:"required,min=0,max=32767"`
	ParentEmotional  *int     `json:"parent_emotional" validate:"required,min=0,max=32767"`
	ParentTotalScore *float64 `json:"parent_total_score" validate:"required,min=0"`

	MotorPeer     string `json:"motor_peer" validate:"required,peer_standing"`
	CognitivePeer string `json:"cognitive_peer" validate:"required,peer_standing"`
	SocialPeer    string `json:"social_peer" validate:"required,peer_standing"`
	EmotionalPeer string `json:"emotional_peer" validate:"required,peer_standing"`

	Notes string `json:"notes" validate:"max=10000"`
}

// AssessmentResult is returned after an assessment has been recorded.
type AssessmentResult struct {
	Assessment *models.Assessment `json:"assessment"`
	Next       IntakeStep         `json:"next"`
}
