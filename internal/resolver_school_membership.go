package internal

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

func idsOf[In any](inputs []In, id func(In) uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = id(in)
	}
	return ids
}

// fetchSchoolMemberships loads the memberships of users in schools, restricted to statuses.
func fetchSchoolMemberships(ctx context.Context, r campus.Reader, schoolIDs, userIDs []uuid.UUID, statuses ...campus.Status) (map[campus.MembershipKey]*campus.SchoolMembership, error) {
	rows, err := FetchWhere[campus.SchoolMembership](ctx, r,
		campus.Condition{Column: "school_id", Values: Distinct(schoolIDs)},
		campus.Condition{Column: "user_id", Values: Distinct(userIDs)},
		StatusCondition(statuses...))
	if err != nil {
		return nil, err
	}
	return KeyBy(rows, (*campus.SchoolMembership).Key), nil
}

type addUsersToSchoolMaps struct {
	main        map[uuid.UUID]*campus.School
	users       map[uuid.UUID]*campus.User
	roles       map[uuid.UUID]*campus.Role
	memberships map[campus.MembershipKey]*campus.SchoolMembership
}

type addUsersToSchools struct {
	NoNormalize[campus.AddUsersToSchoolInput]
	AddMembershipVariant[*campus.School]
	env mutationEnv
}

func (m *addUsersToSchools) EntityName() string { return schoolEntity }

func addUsersSchoolID(in campus.AddUsersToSchoolInput) uuid.UUID { return in.SchoolID }

func (m *addUsersToSchools) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.AddUsersToSchoolInput) (addUsersToSchoolMaps, error) {
	schoolIDs := idsOf(inputs, addUsersSchoolID)
	userIDs := FlatMap(inputs, func(in campus.AddUsersToSchoolInput) []uuid.UUID { return in.UserIDs })
	roleIDs := FlatMap(inputs, func(in campus.AddUsersToSchoolInput) []uuid.UUID { return in.SchoolRoleIDs })

	var maps addUsersToSchoolMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.School](gctx, r, schoolIDs, nil)
		return err
	})
	g.Go(func() error {
		var err error
		maps.users, err = FetchByIDs[campus.User](gctx, r, userIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.roles, err = FetchByIDs[campus.Role](gctx, r, roleIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.memberships, err = fetchSchoolMemberships(gctx, r, schoolIDs, userIDs, campus.StatusActive)
		return err
	})
	return maps, g.Wait()
}

func (m *addUsersToSchools) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.AddUsersToSchoolInput, maps addUsersToSchoolMaps) error {
	return auth.RejectIfNotAllowed(ctx, schoolScope(idsOf(inputs, addUsersSchoolID), maps.main), campus.PermissionEditSchool)
}

func (m *addUsersToSchools) ValidateOverAllInputs(inputs []campus.AddUsersToSchoolInput, maps addUsersToSchoolMaps) ([]Indexed[campus.AddUsersToSchoolInput], []*campus.APIError) {
	roles := make([][]uuid.UUID, len(inputs))
	users := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		roles[i] = in.SchoolRoleIDs
		users[i] = nonNil(in.UserIDs)
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		ValidateActiveAndNoDuplicates(idsOf(inputs, addUsersSchoolID), schoolEntity, maps.main),
		ValidateSubItemsLengthAndNoDuplicates(roles, "AddUsersToSchoolInput", "schoolRoleIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
		ValidateSubItemsLengthAndNoDuplicates(users, "AddUsersToSchoolInput", "userIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *addUsersToSchools) Validate(index int, in campus.AddUsersToSchoolInput, maps addUsersToSchoolMaps) []*campus.APIError {
	_, errs := FlagNonExistent("Role", index, in.SchoolRoleIDs, maps.roles)
	_, userErrs := FlagNonExistent("User", index, in.UserIDs, maps.users)
	errs = append(errs, userErrs...)
	return append(errs, FlagExistentSchoolMembership(index, in.SchoolID, in.UserIDs, maps.memberships)...)
}

func (m *addUsersToSchools) Process(_ int, in campus.AddUsersToSchoolInput, maps addUsersToSchoolMaps) ProcessedResult[*campus.School] {
	roles := append([]uuid.UUID{}, in.SchoolRoleIDs...)
	modified := make([]campus.Record, 0, len(in.UserIDs))
	for _, userID := range in.UserIDs {
		modified = append(modified, &campus.SchoolMembership{
			SchoolID:      in.SchoolID,
			UserID:        userID,
			Status:        campus.StatusActive,
			JoinTimestamp: m.env.now,
			RoleIDs:       roles,
		})
	}
	return ProcessedResult[*campus.School]{Output: maps.main[in.SchoolID], Modified: modified}
}

func (m *addUsersToSchools) BuildOutput(r ProcessedResult[*campus.School]) campus.SchoolNode {
	return campus.NewSchoolNode(r.Output)
}

type schoolMembershipStatusMaps struct {
	main        map[uuid.UUID]*campus.School
	users       map[uuid.UUID]*campus.User
	memberships map[campus.MembershipKey]*campus.SchoolMembership
}

// schoolMembershipStatus moves memberships in the from statuses to the variant's status.
type schoolMembershipStatus struct {
	NoNormalize[campus.SchoolUsersInput]
	MembershipStatusVariant[*campus.School]
	env           mutationEnv
	inputTypeName string
	from          []campus.Status
	permission    campus.PermissionName
}

func newSchoolMembershipStatus(env mutationEnv, inputTypeName string, to campus.Status, permission campus.PermissionName, from ...campus.Status) *schoolMembershipStatus {
	return &schoolMembershipStatus{
		MembershipStatusVariant: MembershipStatusVariant[*campus.School]{
			Table:      (&campus.SchoolMembership{}).Table(),
			KeyColumns: (&campus.SchoolMembership{}).KeyColumns(),
			Status:     to,
			At:         env.now,
			Audit:      env.audit,
			Actor:      env.actor,
		},
		env:           env,
		inputTypeName: inputTypeName,
		from:          from,
		permission:    permission,
	}
}

func newReactivateUsersFromSchools(env mutationEnv) *schoolMembershipStatus {
	return newSchoolMembershipStatus(env, "ReactivateUsersFromSchoolInput",
		campus.StatusActive, campus.PermissionReactivateMySchoolUser, campus.StatusInactive)
}

func newRemoveUsersFromSchools(env mutationEnv) *schoolMembershipStatus {
	return newSchoolMembershipStatus(env, "RemoveUsersFromSchoolInput",
		campus.StatusInactive, campus.PermissionDeactivateMySchoolUser, campus.StatusActive)
}

func newDeleteUsersFromSchools(env mutationEnv) *schoolMembershipStatus {
	return newSchoolMembershipStatus(env, "DeleteUsersFromSchoolInput",
		campus.StatusDeleted, campus.PermissionDeleteMySchoolUsers, campus.StatusActive, campus.StatusInactive)
}

func (m *schoolMembershipStatus) EntityName() string { return schoolEntity }

func schoolUsersSchoolID(in campus.SchoolUsersInput) uuid.UUID { return in.SchoolID }

func (m *schoolMembershipStatus) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.SchoolUsersInput) (schoolMembershipStatusMaps, error) {
	schoolIDs := idsOf(inputs, schoolUsersSchoolID)
	userIDs := FlatMap(inputs, func(in campus.SchoolUsersInput) []uuid.UUID { return in.UserIDs })

	var maps schoolMembershipStatusMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.School](gctx, r, schoolIDs, nil)
		return err
	})
	g.Go(func() error {
		var err error
		maps.users, err = FetchByIDs[campus.User](gctx, r, userIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.memberships, err = fetchSchoolMemberships(gctx, r, schoolIDs, userIDs, m.from...)
		return err
	})
	return maps, g.Wait()
}

func (m *schoolMembershipStatus) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.SchoolUsersInput, maps schoolMembershipStatusMaps) error {
	return auth.RejectIfNotAllowed(ctx, schoolScope(idsOf(inputs, schoolUsersSchoolID), maps.main), m.permission)
}

func (m *schoolMembershipStatus) ValidateOverAllInputs(inputs []campus.SchoolUsersInput, _ schoolMembershipStatusMaps) ([]Indexed[campus.SchoolUsersInput], []*campus.APIError) {
	users := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		users[i] = nonNil(in.UserIDs)
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		Maps(ValidateNoDuplicate(idsOf(inputs, schoolUsersSchoolID), m.inputTypeName, []string{"schoolId"})),
		ValidateSubItemsLengthAndNoDuplicates(users, m.inputTypeName, "userIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *schoolMembershipStatus) Validate(index int, in campus.SchoolUsersInput, maps schoolMembershipStatusMaps) []*campus.APIError {
	_, errs := FlagNonExistent(schoolEntity, index, []uuid.UUID{in.SchoolID}, maps.main)
	if len(errs) > 0 {
		return errs
	}
	for _, userID := range in.UserIDs {
		if _, ok := maps.users[userID]; !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, "User", userID.String(), "", ""))
			continue
		}
		if _, ok := maps.memberships[campus.MembershipKey{ParentID: in.SchoolID, UserID: userID}]; !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistentChild, index,
				"User", userID.String(), schoolEntity, in.SchoolID.String()))
		}
	}
	return errs
}

func (m *schoolMembershipStatus) Process(_ int, in campus.SchoolUsersInput, maps schoolMembershipStatusMaps) ProcessedResult[*campus.School] {
	modified := make([]campus.Record, 0, len(in.UserIDs))
	for _, userID := range in.UserIDs {
		membership := maps.memberships[campus.MembershipKey{ParentID: in.SchoolID, UserID: userID}]
		membership.Status = m.Status
		membership.StatusUpdatedAt = ptr(m.env.now)
		modified = append(modified, membership)
	}
	return ProcessedResult[*campus.School]{Output: maps.main[in.SchoolID], Modified: modified}
}

func (m *schoolMembershipStatus) BuildOutput(r ProcessedResult[*campus.School]) campus.SchoolNode {
	return campus.NewSchoolNode(r.Output)
}

// nonNil makes a missing list count as empty for the length check.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
