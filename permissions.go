package campus

import (
	"context"

	"github.com/google/uuid"
)

// PermissionName is the stable identifier of a grantable permission.
type PermissionName string

const (
	PermissionCreateAgeRange PermissionName = "create_age_range_20222"
	PermissionEditAgeRange   PermissionName = "edit_age_range_20332"
	PermissionDeleteAgeRange PermissionName = "delete_age_range_20442"

	PermissionDeleteGrade PermissionName = "delete_grade_20443"

	PermissionCreateSubjects PermissionName = "create_subjects_20227"
	PermissionEditSubjects   PermissionName = "edit_subjects_20337"
	PermissionDeleteSubjects PermissionName = "delete_subjects_20447"

	PermissionCreateSchool PermissionName = "create_school_20220"
	PermissionEditSchool   PermissionName = "edit_school_20330"
	PermissionDeleteSchool PermissionName = "delete_school_20440"

	PermissionReactivateMySchoolUser PermissionName = "reactivate_my_school_user_40886"
	PermissionDeactivateMySchoolUser PermissionName = "deactivate_my_school_user_40885"
	PermissionDeleteMySchoolUsers    PermissionName = "delete_my_school_users_40441"

	PermissionSendInvitation       PermissionName = "send_invitation_40882"
	PermissionEditThisOrganization PermissionName = "edit_this_organization_10330"

	PermissionCreateAcademicTerm PermissionName = "create_academic_term_20229"
	PermissionDeleteAcademicTerm PermissionName = "delete_academic_term_20449"
)

// Scope is the set of organizations and schools a permission check covers.
type Scope struct {
	OrganizationIDs []uuid.UUID
	SchoolIDs       []uuid.UUID
}

// IsEmpty reports whether the scope names no ids at all.
func (s Scope) IsEmpty() bool {
	return len(s.OrganizationIDs) == 0 && len(s.SchoolIDs) == 0
}

// Authorizer is the per-request permission context passed into every mutation.
type Authorizer interface {
	UserID() uuid.UUID
	// IsAdmin reports a super admin, who bypasses scope checks.
	IsAdmin() bool
	// RejectIfNotAllowed returns a *PermissionError when the caller lacks
	// permission in any id of the scope.
	RejectIfNotAllowed(ctx context.Context, scope Scope, permission PermissionName) error
}
