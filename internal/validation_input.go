package internal

import (
	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

// FlagNonExistent resolves ids against m. Found entities are returned in id order;
// every missing id yields a non-existent error.
func FlagNonExistent[E any](entity string, index int, ids []uuid.UUID, m map[uuid.UUID]E) ([]E, []*campus.APIError) {
	values := make([]E, 0, len(ids))
	var errs []*campus.APIError
	for _, id := range ids {
		v, ok := m[id]
		if !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, entity, id.String(), "", "", "id"))
			continue
		}
		values = append(values, v)
	}
	return values, errs
}

// FlagExistent reports every id already present in m.
func FlagExistent[E any](entity string, index int, ids []uuid.UUID, m map[uuid.UUID]E) []*campus.APIError {
	var errs []*campus.APIError
	for _, id := range ids {
		if _, ok := m[id]; ok {
			errs = append(errs, campus.NewEntityError(campus.EntityExistent, index, entity, id.String(), "", "", "id"))
		}
	}
	return errs
}

// FlagNonExistentChild reports child ids not linked to the parent.
func FlagNonExistentChild(parentEntity, childEntity string, index int, parentID uuid.UUID, childIDs []uuid.UUID, linked *Set[uuid.UUID]) []*campus.APIError {
	var errs []*campus.APIError
	for _, id := range childIDs {
		if !linked.Contains(id) {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistentChild, index,
				childEntity, id.String(), parentEntity, parentID.String(), "id"))
		}
	}
	return errs
}

// FlagExistentChild reports child ids already linked to the parent.
func FlagExistentChild(parentEntity, childEntity string, index int, parentID uuid.UUID, childIDs []uuid.UUID, linked *Set[uuid.UUID]) []*campus.APIError {
	var errs []*campus.APIError
	for _, id := range childIDs {
		if linked.Contains(id) {
			errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index,
				childEntity, id.String(), parentEntity, parentID.String(), "id"))
		}
	}
	return errs
}

func flagMemberships[M any](parentEntity string, index int, parentID uuid.UUID, userIDs []uuid.UUID,
	memberships map[campus.MembershipKey]M, wantExisting bool) []*campus.APIError {
	var errs []*campus.APIError
	for _, uid := range userIDs {
		_, ok := memberships[campus.MembershipKey{ParentID: parentID, UserID: uid}]
		switch {
		case wantExisting && !ok:
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistentChild, index,
				"User", uid.String(), parentEntity, parentID.String(), "user_id", parentEntityVariable(parentEntity)))
		case !wantExisting && ok:
			errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index,
				"User", uid.String(), parentEntity, parentID.String(), "user_id", parentEntityVariable(parentEntity)))
		}
	}
	return errs
}

func parentEntityVariable(parentEntity string) string {
	if parentEntity == "School" {
		return "school_id"
	}
	return "organization_id"
}

// FlagNonExistentOrganizationMembership reports users without a membership in the organization.
func FlagNonExistentOrganizationMembership(index int, organizationID uuid.UUID, userIDs []uuid.UUID,
	memberships map[campus.MembershipKey]*campus.OrganizationMembership) []*campus.APIError {
	return flagMemberships("Organization", index, organizationID, userIDs, memberships, true)
}

// FlagExistentOrganizationMembership reports users already in the organization.
func FlagExistentOrganizationMembership(index int, organizationID uuid.UUID, userIDs []uuid.UUID,
	memberships map[campus.MembershipKey]*campus.OrganizationMembership) []*campus.APIError {
	return flagMemberships("Organization", index, organizationID, userIDs, memberships, false)
}

// FlagNonExistentSchoolMembership reports users without a membership in the school.
func FlagNonExistentSchoolMembership(index int, schoolID uuid.UUID, userIDs []uuid.UUID,
	memberships map[campus.MembershipKey]*campus.SchoolMembership) []*campus.APIError {
	return flagMemberships("School", index, schoolID, userIDs, memberships, true)
}

// FlagExistentSchoolMembership reports users already in the school.
func FlagExistentSchoolMembership(index int, schoolID uuid.UUID, userIDs []uuid.UUID,
	memberships map[campus.MembershipKey]*campus.SchoolMembership) []*campus.APIError {
	return flagMemberships("School", index, schoolID, userIDs, memberships, false)
}

// ValidateSubItemsInOrg reports sub-items that are missing, or that are neither
// system items nor owned by the organization.
func ValidateSubItemsInOrg[E campus.Owned](entity string, index int, ids []uuid.UUID, organizationID uuid.UUID, m map[uuid.UUID]E) []*campus.APIError {
	var errs []*campus.APIError
	for _, id := range ids {
		item, ok := m[id]
		if !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, entity, id.String(), "", "", "id"))
			continue
		}
		if item.IsSystem() {
			continue
		}
		if owner := item.OwningOrganization(); owner == nil || *owner != organizationID {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistentChild, index,
				entity, id.String(), "Organization", organizationID.String(), "id"))
		}
	}
	return errs
}

// FlagUnauthorized fails with an APIErrorCollection when any targeted entity is a
// system entity, which callers may never mutate. Missing ids are left to existence checks.
func FlagUnauthorized[E campus.Owned](entity string, ids []uuid.UUID, m map[uuid.UUID]E, attribute string) error {
	var errs []*campus.APIError
	for i, id := range ids {
		if item, ok := m[id]; ok && item.IsSystem() {
			errs = append(errs, campus.NewUnauthorizedError(i, entity, attribute, id.String()))
		}
	}
	if len(errs) > 0 {
		return campus.NewAPIErrorCollection(errs)
	}
	return nil
}
