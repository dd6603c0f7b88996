package types

import "github.com/google/uuid"

// Actor is the acting user of a request, passed explicitly to every service
// call. The zero value is the anonymous actor.
type Actor struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool
}

// Anonymous is the actor of unauthenticated requests.
var Anonymous = Actor{}

// IsAnonymous reports whether the actor carries no authenticated identity.
func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

// CanEdit reports whether the actor may mutate a resource owned by ownerID.
func (a Actor) CanEdit(ownerID uuid.UUID) bool {
	return !a.IsAnonymous() && (a.IsAdmin || a.UserID == ownerID)
}
