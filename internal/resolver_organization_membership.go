package internal

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

const organizationEntity = "Organization"

func fetchOrganizationMemberships(ctx context.Context, r campus.Reader, orgIDs, userIDs []uuid.UUID) (map[campus.MembershipKey]*campus.OrganizationMembership, error) {
	rows, err := FetchWhere[campus.OrganizationMembership](ctx, r,
		campus.Condition{Column: "organization_id", Values: Distinct(orgIDs)},
		campus.Condition{Column: "user_id", Values: Distinct(userIDs)},
		StatusCondition(campus.StatusActive))
	if err != nil {
		return nil, err
	}
	return KeyBy(rows, (*campus.OrganizationMembership).Key), nil
}

func userDisplayName(u *campus.User) string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

type addUsersToOrganizationMaps struct {
	main        map[uuid.UUID]*campus.Organization
	users       map[uuid.UUID]*campus.User
	roles       map[uuid.UUID]*campus.Role
	memberships map[campus.MembershipKey]*campus.OrganizationMembership
}

type addUsersToOrganizations struct {
	AddMembershipVariant[*campus.Organization]
	env mutationEnv
}

func (m *addUsersToOrganizations) EntityName() string { return organizationEntity }

func (m *addUsersToOrganizations) Normalize(inputs []campus.AddUsersToOrganizationInput) []campus.AddUsersToOrganizationInput {
	out := make([]campus.AddUsersToOrganizationInput, len(inputs))
	for i, in := range inputs {
		in.Shortcode = NormalizeShortcode(in.Shortcode)
		out[i] = in
	}
	return out
}

func addUsersOrgID(in campus.AddUsersToOrganizationInput) uuid.UUID { return in.OrganizationID }

func (m *addUsersToOrganizations) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.AddUsersToOrganizationInput) (addUsersToOrganizationMaps, error) {
	orgIDs := idsOf(inputs, addUsersOrgID)
	userIDs := FlatMap(inputs, func(in campus.AddUsersToOrganizationInput) []uuid.UUID { return in.UserIDs })
	roleIDs := FlatMap(inputs, func(in campus.AddUsersToOrganizationInput) []uuid.UUID { return in.OrganizationRoleIDs })

	var maps addUsersToOrganizationMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
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
		maps.memberships, err = fetchOrganizationMemberships(gctx, r, orgIDs, userIDs)
		return err
	})
	return maps, g.Wait()
}

func (m *addUsersToOrganizations) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.AddUsersToOrganizationInput, _ addUsersToOrganizationMaps) error {
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(idsOf(inputs, addUsersOrgID))}, campus.PermissionSendInvitation)
}

func (m *addUsersToOrganizations) ValidateOverAllInputs(inputs []campus.AddUsersToOrganizationInput, maps addUsersToOrganizationMaps) ([]Indexed[campus.AddUsersToOrganizationInput], []*campus.APIError) {
	users := make([][]uuid.UUID, len(inputs))
	roles := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		users[i] = nonNil(in.UserIDs)
		roles[i] = nonNil(in.OrganizationRoleIDs)
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		ValidateActiveAndNoDuplicates(idsOf(inputs, addUsersOrgID), organizationEntity, maps.main),
		ValidateSubItemsLengthAndNoDuplicates(users, "AddUsersToOrganizationInput", "userIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
		ValidateSubItemsLengthAndNoDuplicates(roles, "AddUsersToOrganizationInput", "organizationRoleIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *addUsersToOrganizations) Validate(index int, in campus.AddUsersToOrganizationInput, maps addUsersToOrganizationMaps) []*campus.APIError {
	var errs []*campus.APIError
	org := maps.main[in.OrganizationID]

	var missingRoles []string
	for _, id := range in.OrganizationRoleIDs {
		if _, ok := maps.roles[id]; !ok {
			missingRoles = append(missingRoles, id.String())
		}
	}
	if len(missingRoles) > 0 {
		errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, "Role", strings.Join(missingRoles, ","), "", ""))
	}

	if in.Shortcode != "" && (!shortcodePattern.MatchString(in.Shortcode) || len(in.Shortcode) > m.env.limits.ShortcodeMaxLength) {
		errs = append(errs, campus.NewSchemaError(index, "OrganizationMembership", "shortcode", "must be upper-case letters or digits"))
	}

	for _, userID := range in.UserIDs {
		user, ok := maps.users[userID]
		if !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, "User", userID.String(), "", ""))
			continue
		}
		if _, ok := maps.memberships[campus.MembershipKey{ParentID: in.OrganizationID, UserID: userID}]; ok {
			errs = append(errs, campus.NewEntityError(campus.EntityDuplicateChild, index, "User", userDisplayName(user),
				organizationEntity, org.Name, "organization_id", "user_id"))
		}
	}
	return errs
}

func (m *addUsersToOrganizations) Process(_ int, in campus.AddUsersToOrganizationInput, maps addUsersToOrganizationMaps) ProcessedResult[*campus.Organization] {
	roles := append([]uuid.UUID{}, in.OrganizationRoleIDs...)
	modified := make([]campus.Record, 0, len(in.UserIDs))
	for _, userID := range in.UserIDs {
		code := in.Shortcode
		if code == "" || len(in.UserIDs) > 1 {
			code = GenerateShortcode(userID, m.env.limits.ShortcodeMaxLength)
		}
		modified = append(modified, &campus.OrganizationMembership{
			OrganizationID: in.OrganizationID,
			UserID:         userID,
			Shortcode:      code,
			Status:         campus.StatusActive,
			JoinTimestamp:  m.env.now,
			RoleIDs:        roles,
		})
	}
	return ProcessedResult[*campus.Organization]{Output: maps.main[in.OrganizationID], Modified: modified}
}

func (m *addUsersToOrganizations) BuildOutput(r ProcessedResult[*campus.Organization]) campus.OrganizationNode {
	return campus.NewOrganizationNode(r.Output)
}

type removeUsersFromOrganizationMaps struct {
	main        map[uuid.UUID]*campus.Organization
	users       map[uuid.UUID]*campus.User
	memberships map[campus.MembershipKey]*campus.OrganizationMembership
}

type removeUsersFromOrganizations struct {
	NoNormalize[campus.OrganizationUsersInput]
	MembershipStatusVariant[*campus.Organization]
	env mutationEnv
}

func newRemoveUsersFromOrganizations(env mutationEnv) *removeUsersFromOrganizations {
	proto := &campus.OrganizationMembership{}
	return &removeUsersFromOrganizations{
		MembershipStatusVariant: MembershipStatusVariant[*campus.Organization]{
			Table:      proto.Table(),
			KeyColumns: proto.KeyColumns(),
			Status:     campus.StatusInactive,
			At:         env.now,
			Audit:      env.audit,
			Actor:      env.actor,
		},
		env: env,
	}
}

func (m *removeUsersFromOrganizations) EntityName() string { return organizationEntity }

func orgUsersOrgID(in campus.OrganizationUsersInput) uuid.UUID { return in.OrganizationID }

func (m *removeUsersFromOrganizations) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.OrganizationUsersInput) (removeUsersFromOrganizationMaps, error) {
	orgIDs := idsOf(inputs, orgUsersOrgID)
	userIDs := FlatMap(inputs, func(in campus.OrganizationUsersInput) []uuid.UUID { return in.UserIDs })

	var maps removeUsersFromOrganizationMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.users, err = FetchByIDs[campus.User](gctx, r, userIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.memberships, err = fetchOrganizationMemberships(gctx, r, orgIDs, userIDs)
		return err
	})
	return maps, g.Wait()
}

func (m *removeUsersFromOrganizations) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.OrganizationUsersInput, _ removeUsersFromOrganizationMaps) error {
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(idsOf(inputs, orgUsersOrgID))}, campus.PermissionEditThisOrganization)
}

func (m *removeUsersFromOrganizations) ValidateOverAllInputs(inputs []campus.OrganizationUsersInput, maps removeUsersFromOrganizationMaps) ([]Indexed[campus.OrganizationUsersInput], []*campus.APIError) {
	users := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		users[i] = nonNil(in.UserIDs)
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		ValidateActiveAndNoDuplicates(idsOf(inputs, orgUsersOrgID), organizationEntity, maps.main),
		ValidateSubItemsLengthAndNoDuplicates(users, "RemoveUsersFromOrganizationInput", "userIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *removeUsersFromOrganizations) Validate(index int, in campus.OrganizationUsersInput, maps removeUsersFromOrganizationMaps) []*campus.APIError {
	var errs []*campus.APIError
	for _, userID := range in.UserIDs {
		if _, ok := maps.users[userID]; !ok {
			errs = append(errs, campus.NewEntityError(campus.EntityNonExistent, index, "User", userID.String(), "", ""))
			continue
		}
		errs = append(errs, FlagNonExistentOrganizationMembership(index, in.OrganizationID, []uuid.UUID{userID}, maps.memberships)...)
	}
	return errs
}

func (m *removeUsersFromOrganizations) Process(_ int, in campus.OrganizationUsersInput, maps removeUsersFromOrganizationMaps) ProcessedResult[*campus.Organization] {
	modified := make([]campus.Record, 0, len(in.UserIDs))
	for _, userID := range in.UserIDs {
		membership := maps.memberships[campus.MembershipKey{ParentID: in.OrganizationID, UserID: userID}]
		membership.Status = m.Status
		membership.StatusUpdatedAt = ptr(m.env.now)
		modified = append(modified, membership)
	}
	return ProcessedResult[*campus.Organization]{Output: maps.main[in.OrganizationID], Modified: modified}
}

func (m *removeUsersFromOrganizations) BuildOutput(r ProcessedResult[*campus.Organization]) campus.OrganizationNode {
	return campus.NewOrganizationNode(r.Output)
}
