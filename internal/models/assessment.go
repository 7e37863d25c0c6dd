package models

import "time"

// PeerStanding rates a domain score relative to same-age peers. Values are
// the ordinal weights stored by the practice.
type PeerStanding string

const (
	PeerBelow PeerStanding = "1"
	PeerAt    PeerStanding = "1.5"
	PeerAbove PeerStanding = "2"
)

// Valid reports whether p is one of the three scale points.
func (p PeerStanding) Valid() bool {
	return p == PeerBelow || p == PeerAt || p == PeerAbove
}

// Label returns a human readable description of the scale point.
func (p PeerStanding) Label() string {
	switch p {
	case PeerBelow:
		return "below peers"
	case PeerAt:
		return "at peers"
	case PeerAbove:
		return "above peers"
	default:
		return string(p)
	}
}

// Domain names an assessed development domain.
type Domain string

const (
	DomainMotor     Domain = "motor"
	DomainCognitive Domain = "cognitive"
	DomainSocial    Domain = "social"
	DomainEmotional Domain = "emotional"
)

// Domains lists the assessed domains in display order.
var Domains = []Domain{DomainMotor, DomainCognitive, DomainSocial, DomainEmotional}

// Assessment is a single scored talent intake record for one client.
type Assessment struct {
	ID             string    `db:"id" json:"id"`
	ClientID       string    `db:"client_id" json:"client_id"`
	CreatedByID    string    `db:"created_by_id" json:"created_by_id"`
	AssessorID     *string   `db:"assessor_id" json:"assessor_id,omitempty"`
	AssessmentDate time.Time `db:"assessment_date" json:"assessment_date"`

	CoachMotor      int      `db:"coach_motor" json:"coach_motor"`
	CoachCognitive  int      `db:"coach_cognitive" json:"coach_cognitive"`
	CoachSocial     int      `db:"coach_social" json:"coach_social"`
	CoachEmotional  int      `db:"coach_emotional" json:"coach_emotional"`
	CoachTotalScore *float64 `db:"coach_total_score" json:"coach_total_score,omitempty"`

	ParentMotor      int     `db:"parent_motor" json:"parent_motor"`
	ParentCognitive  int     `db:"parent_cognitive" json:"parent_cognitive"`
	ParentSocial     int     `db:"parent_social" json:"parent_social"`
	ParentEmotional  int     `db:"parent_emotional" json:"parent_emotional"`
	ParentTotalScore float64 `db:"parent_total_score" json:"parent_total_score"`

	MotorPeer     PeerStanding `db:"motor_peer" json:"motor_peer"`
	CognitivePeer PeerStanding `db:"cognitive_peer" json:"cognitive_peer"`
	SocialPeer    PeerStanding `db:"social_peer" json:"social_peer"`
	EmotionalPeer PeerStanding `db:"emotional_peer" json:"emotional_peer"`

	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CoachScore returns the coach rating for a domain.
func (a *Assessment) CoachScore(d Domain) int {
	switch d {
	case DomainMotor:
		return a.CoachMotor
	case DomainCognitive:
		return a.CoachCognitive
	case DomainSocial:
		return a.CoachSocial
	case DomainEmotional:
		return a.CoachEmotional
	}
	return 0
}

// ParentScore returns the parent rating for a domain.
func (a *Assessment) ParentScore(d Domain) int {
	switch d {
	case DomainMotor:
		return a.ParentMotor
	case DomainCognitive:
		return a.ParentCognitive
	case DomainSocial:
		return a.ParentSocial
	case DomainEmotional:
		return a.ParentEmotional
	}
	return 0
}

// Peer returns the peer standing for a domain.
func (a *Assessment) Peer(d Domain) PeerStanding {
	switch d {
	case DomainMotor:
		return a.MotorPeer
	case DomainCognitive:
		return a.CognitivePeer
	case DomainSocial:
		return a.SocialPeer
	case DomainEmotional:
		return a.EmotionalPeer
	}
	return ""
}

// AssessmentDetail joins an assessment with the names of the identities it
// references.
type AssessmentDetail struct {
	Assessment
	ClientName         string  `db:"client_name" json:"client_name"`
	ClientNationalCode string  `db:"client_national_code" json:"client_national_code"`
	CreatedByName      string  `db:"created_by_name" json:"created_by_name"`
	AssessorName       *string `db:"assessor_name" json:"assessor_name,omitempty"`
}
