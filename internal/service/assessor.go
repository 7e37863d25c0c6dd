package service

import "github.com/noah-isme/talent-intake-api/internal/models"

// AssessorFor returns the identity recorded as assessor when actor records an
// assessment: therapists and assessors assess themselves, anyone else leaves
// the field empty.
func AssessorFor(actor models.Actor) *string {
	if actor.IsZero() || !actor.Role.CanAssess() {
		return nil
	}
	id := actor.ID
	return &id
}
