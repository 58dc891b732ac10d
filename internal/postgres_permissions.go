package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
)

type permissionPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const organizationPermissionsQuery = `SELECT m.organization_id, p.permission_name
FROM organization_membership m
JOIN organization_membership_role mr ON mr.organization_id = m.organization_id AND mr.user_id = m.user_id
JOIN role_permission rp ON rp.role_id = mr.role_id
JOIN permission p ON p.permission_name = rp.permission_name
WHERE m.user_id = $1 AND m.status = 'active'
GROUP BY m.user_id, m.organization_id, p.permission_name
HAVING bool_and(p.allow)`

const schoolPermissionsQuery = `SELECT m.school_id, p.permission_name
FROM school_membership m
JOIN school_membership_role mr ON mr.school_id = m.school_id AND mr.user_id = m.user_id
JOIN role_permission rp ON rp.role_id = mr.role_id
JOIN permission p ON p.permission_name = rp.permission_name
WHERE m.user_id = $1 AND m.status = 'active'
GROUP BY m.user_id, m.school_id, p.permission_name
HAVING bool_and(p.allow)`

type permissionSets map[uuid.UUID]*Set[campus.PermissionName]

func (p permissionSets) grants(id uuid.UUID, permission campus.PermissionName) bool {
	set, ok := p[id]
	return ok && set.Contains(permission)
}

// UserPermissions is the request-scoped Authorizer backed by role grants in Postgres.
// Each permission set is loaded at most once, on first use.
type UserPermissions struct {
	pool    permissionPool
	userID  uuid.UUID
	isAdmin bool

	orgOnce     sync.Once
	orgPerms    permissionSets
	orgErr      error
	schoolOnce  sync.Once
	schoolPerms permissionSets
	schoolErr   error
}

func NewUserPermissions(pool permissionPool, userID uuid.UUID, isAdmin bool) *UserPermissions {
	return &UserPermissions{pool: pool, userID: userID, isAdmin: isAdmin}
}

func (u *UserPermissions) UserID() uuid.UUID { return u.userID }
func (u *UserPermissions) IsAdmin() bool     { return u.isAdmin }

// RejectIfNotAllowed passes when every organization in the scope grants the
// permission, or failing that when every school does. An empty scope passes.
func (u *UserPermissions) RejectIfNotAllowed(ctx context.Context, scope campus.Scope, permission campus.PermissionName) error {
	if u.isAdmin || scope.IsEmpty() {
		return nil
	}

	var orgDenied []uuid.UUID
	if len(scope.OrganizationIDs) > 0 {
		orgs, err := u.organizationPermissions(ctx)
		if err != nil {
			return err
		}
		orgDenied = denied(orgs, scope.OrganizationIDs, permission)
		if len(orgDenied) == 0 {
			return nil
		}
	}

	var schoolDenied []uuid.UUID
	if len(scope.SchoolIDs) > 0 {
		schools, err := u.schoolPermissions(ctx)
		if err != nil {
			return err
		}
		schoolDenied = denied(schools, scope.SchoolIDs, permission)
		if len(schoolDenied) == 0 {
			return nil
		}
	}

	permErr := &campus.PermissionError{UserID: u.userID.String(), Permission: permission}
	if len(orgDenied) > 0 {
		permErr.ScopeType = "Organization"
		permErr.ScopeIDs = uuidStrings(orgDenied)
	} else {
		permErr.ScopeType = "School"
		permErr.ScopeIDs = uuidStrings(schoolDenied)
	}
	zap.S().Infow("permission denied", "userId", u.userID, "permission", permission,
		"scope", permErr.ScopeType, "ids", permErr.ScopeIDs)
	return permErr
}

func denied(sets permissionSets, ids []uuid.UUID, permission campus.PermissionName) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range Distinct(ids) {
		if !sets.grants(id, permission) {
			out = append(out, id)
		}
	}
	return out
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (u *UserPermissions) organizationPermissions(ctx context.Context) (permissionSets, error) {
	u.orgOnce.Do(func() {
		u.orgPerms, u.orgErr = u.load(ctx, organizationPermissionsQuery)
	})
	return u.orgPerms, u.orgErr
}

func (u *UserPermissions) schoolPermissions(ctx context.Context) (permissionSets, error) {
	u.schoolOnce.Do(func() {
		u.schoolPerms, u.schoolErr = u.load(ctx, schoolPermissionsQuery)
	})
	return u.schoolPerms, u.schoolErr
}

func (u *UserPermissions) load(ctx context.Context, query string) (permissionSets, error) {
	rows, err := u.pool.Query(ctx, query, u.userID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	sets := permissionSets{}
	for rows.Next() {
		var scopeID uuid.UUID
		var name string
		if err := rows.Scan(&scopeID, &name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		set, ok := sets[scopeID]
		if !ok {
			set = NewSet[campus.PermissionName]()
			sets[scopeID] = set
		}
		set.Add(campus.PermissionName(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return sets, nil
}
