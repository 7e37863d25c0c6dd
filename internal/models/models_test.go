package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoleClassification(t *testing.T) {
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleTherapist.IsStaff())
	assert.True(t, RoleAssessor.IsStaff())
	assert.False(t, RoleClient.IsStaff())

	assert.False(t, RoleAdmin.CanAssess())
	assert.True(t, RoleTherapist.CanAssess())
	assert.True(t, RoleAssessor.CanAssess())
	assert.False(t, RoleClient.CanAssess())
}

func TestPeerStanding(t *testing.T) {
	for _, p := range []PeerStanding{PeerBelow, PeerAt, PeerAbove} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, PeerStanding("3").Valid())
	assert.Equal(t, "at peers", PeerAt.Label())
	assert.Equal(t, "x", PeerStanding("x").Label())
}

func TestAssessmentDomainAccessors(t *testing.T) {
	a := Assessment{
		CoachMotor: 10, CoachCognitive: 8, CoachSocial: 9, CoachEmotional: 7,
		ParentMotor: 9, ParentCognitive: 8, ParentSocial: 8, ParentEmotional: 7,
		MotorPeer: PeerBelow, CognitivePeer: PeerAt, SocialPeer: PeerAbove, EmotionalPeer: PeerAt,
	}
	coach := make([]int, 0, len(Domains))
	parent := make([]int, 0, len(Domains))
	for _, d := range Domains {
		coach = append(coach, a.CoachScore(d))
		parent = append(parent, a.ParentScore(d))
	}
	assert.Equal(t, []int{10, 8, 9, 7}, coach)
	assert.Equal(t, []int{9, 8, 8, 7}, parent)
	assert.Equal(t, PeerAbove, a.Peer(DomainSocial))
	assert.Equal(t, 0, a.CoachScore(Domain("unknown")))
}

func TestClaimsActor(t *testing.T) {
	var nilClaims *JWTClaims
	assert.True(t, nilClaims.Actor().IsZero())

	claims := &JWTClaims{UserID: "u1", Role: RoleTherapist}
	assert.Equal(t, Actor{ID: "u1", Role: RoleTherapist}, claims.Actor())
}
