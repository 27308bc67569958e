package domain

import "github.com/google/uuid"

// UserContext is the authorization capability consumed by the lifecycle
// controller. Authentication itself happens elsewhere; this layer only asks
// who the actor is and whether they hold design rights.
type UserContext interface {
	IsAuthenticated() bool
	UserID() uuid.UUID
	UserName() string
	CanDesign() bool
}

// Action classifies what a caller is trying to do. Only ActionDesign
// authorizes mutations through the lifecycle controller.
type Action int

const ActionNone Action = 0

const (
	ActionCreate Action = 1 << iota
	ActionRead
	ActionUpdate
	ActionDelete
	ActionDesign
	ActionAssignRights
)

// AccessCheck decides whether the user may perform an action, optionally
// scoped to a specific record's public identifier. When no check is injected
// the controller falls back to UserContext.CanDesign.
type AccessCheck func(uc UserContext, action Action, publicID uuid.UUID) bool
