package campus

import (
	"github.com/google/uuid"
)

// Status is the lifecycle state shared by every persisted entity.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// IsValid reports whether s is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeleted:
		return true
	}
	return false
}

// ActiveOnly is the default status filter for prefetches.
var ActiveOnly = []Status{StatusActive}

// OrgNameKey identifies an entity by its owning organization and name.
// A nil organization is encoded as uuid.Nil, which is how system entities are keyed.
type OrgNameKey struct {
	OrganizationID uuid.UUID
	Name           string
}

// SchoolNameKey identifies an entity by its school and name.
type SchoolNameKey struct {
	SchoolID uuid.UUID
	Name     string
}

// MembershipKey identifies a membership by its parent and user.
type MembershipKey struct {
	ParentID uuid.UUID
	UserID   uuid.UUID
}

// PairKey identifies a link between a parent entity and a child entity.
type PairKey struct {
	ParentID uuid.UUID
	ChildID  uuid.UUID
}

// OrgOf returns the organization id used in composite keys, mapping nil to uuid.Nil.
func OrgOf(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
