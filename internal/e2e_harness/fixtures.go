package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organization (
  organization_id UUID PRIMARY KEY,
  organization_name TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS school (
  school_id UUID PRIMARY KEY,
  school_name TEXT NOT NULL,
  shortcode TEXT NOT NULL,
  organization_id UUID NOT NULL REFERENCES organization,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS "user" (
  user_id UUID PRIMARY KEY,
  given_name TEXT NOT NULL,
  family_name TEXT NOT NULL,
  email TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS role (
  role_id UUID PRIMARY KEY,
  role_name TEXT NOT NULL,
  organization_id UUID,
  system_role BOOLEAN NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS permission (
  permission_name TEXT PRIMARY KEY
);`,
	`CREATE TABLE IF NOT EXISTS role_permission (
  role_id UUID NOT NULL REFERENCES role,
  permission_name TEXT NOT NULL REFERENCES permission,
  PRIMARY KEY (role_id, permission_name)
);`,
	`CREATE TABLE IF NOT EXISTS age_range (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  low_value INTEGER NOT NULL,
  high_value INTEGER NOT NULL,
  low_value_unit TEXT NOT NULL,
  high_value_unit TEXT NOT NULL,
  system BOOLEAN NOT NULL,
  organization_id UUID,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS grade (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  system BOOLEAN NOT NULL,
  organization_id UUID,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS category (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  system BOOLEAN NOT NULL,
  organization_id UUID,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS subcategory (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  system BOOLEAN NOT NULL,
  organization_id UUID,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS category_subcategory (
  category_id UUID NOT NULL REFERENCES category,
  subcategory_id UUID NOT NULL REFERENCES subcategory,
  PRIMARY KEY (category_id, subcategory_id)
);`,
	`CREATE TABLE IF NOT EXISTS academic_term (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  start_date TIMESTAMPTZ NOT NULL,
  end_date TIMESTAMPTZ NOT NULL,
  school_id UUID NOT NULL REFERENCES school,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS class (
  class_id UUID PRIMARY KEY,
  class_name TEXT NOT NULL,
  organization_id UUID,
  academic_term_id UUID,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);`,
	`CREATE TABLE IF NOT EXISTS organization_membership (
  organization_id UUID NOT NULL REFERENCES organization,
  user_id UUID NOT NULL REFERENCES "user",
  shortcode TEXT NOT NULL,
  status TEXT NOT NULL,
  status_updated_at TIMESTAMPTZ,
  join_timestamp TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (organization_id, user_id)
);`,
	`CREATE TABLE IF NOT EXISTS organization_membership_role (
  organization_id UUID NOT NULL,
  user_id UUID NOT NULL,
  role_id UUID NOT NULL REFERENCES role,
  PRIMARY KEY (organization_id, user_id, role_id),
  FOREIGN KEY (organization_id, user_id) REFERENCES organization_membership
);`,
	`CREATE TABLE IF NOT EXISTS school_membership (
  school_id UUID NOT NULL REFERENCES school,
  user_id UUID NOT NULL REFERENCES "user",
  status TEXT NOT NULL,
  status_updated_at TIMESTAMPTZ,
  join_timestamp TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (school_id, user_id)
);`,
	`CREATE TABLE IF NOT EXISTS school_membership_role (
  school_id UUID NOT NULL,
  user_id UUID NOT NULL,
  role_id UUID NOT NULL REFERENCES role,
  PRIMARY KEY (school_id, user_id, role_id),
  FOREIGN KEY (school_id, user_id) REFERENCES school_membership
);`,
}

// ApplySchema creates every table the mutation service reads or writes.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	for _, s := range schemaStatements {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Tenant identifies the rows SeedTenant inserts.
type Tenant struct {
	OrganizationID uuid.UUID
	SchoolID       uuid.UUID
	ManagerRoleID  uuid.UUID
	// ManagerID holds ManagerRoleID in the organization.
	ManagerID uuid.UUID
	// OutsiderID is an active user with no memberships.
	OutsiderID uuid.UUID
}

var managerPermissions = []campus.PermissionName{
	campus.PermissionCreateAgeRange,
	campus.PermissionEditAgeRange,
	campus.PermissionDeleteAgeRange,
	campus.PermissionCreateSchool,
	campus.PermissionEditSchool,
	campus.PermissionCreateAcademicTerm,
	campus.PermissionDeleteAcademicTerm,
	campus.PermissionSendInvitation,
}

// SeedTenant inserts one organization with a school, a manager and an outsider.
func SeedTenant(ctx context.Context, db *sql.DB) (Tenant, error) {
	t := Tenant{
		OrganizationID: uuid.New(),
		SchoolID:       uuid.New(),
		ManagerID:      uuid.New(),
		OutsiderID:     uuid.New(),
		ManagerRoleID:  uuid.New(),
	}
	now := time.Now().UTC()
	active := string(campus.StatusActive)

	type stmt struct {
		query string
		args  []any
	}
	stmts := []stmt{
		{`INSERT INTO organization (organization_id, organization_name, status, created_at) VALUES ($1, $2, $3, $4)`,
			[]any{t.OrganizationID, "Riverside Trust", active, now}},
		{`INSERT INTO school (school_id, school_name, shortcode, organization_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{t.SchoolID, "Riverside Primary", "RVP", t.OrganizationID, active, now}},
		{`INSERT INTO "user" (user_id, given_name, family_name, email, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{t.ManagerID, "Mara", "Okafor", "mara@example.com", active, now}},
		{`INSERT INTO "user" (user_id, given_name, family_name, email, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{t.OutsiderID, "Theo", "Lind", "theo@example.com", active, now}},
		{`INSERT INTO role (role_id, role_name, organization_id, system_role, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{t.ManagerRoleID, "Manager", t.OrganizationID, false, active, now}},
		{`INSERT INTO organization_membership (organization_id, user_id, shortcode, status, join_timestamp) VALUES ($1, $2, $3, $4, $5)`,
			[]any{t.OrganizationID, t.ManagerID, "MARA", active, now}},
		{`INSERT INTO organization_membership_role (organization_id, user_id, role_id) VALUES ($1, $2, $3)`,
			[]any{t.OrganizationID, t.ManagerID, t.ManagerRoleID}},
	}
	for _, p := range managerPermissions {
		stmts = append(stmts,
			stmt{`INSERT INTO permission (permission_name) VALUES ($1) ON CONFLICT DO NOTHING`, []any{string(p)}},
			stmt{`INSERT INTO role_permission (role_id, permission_name) VALUES ($1, $2)`, []any{t.ManagerRoleID, string(p)}},
		)
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s.query, s.args...); err != nil {
			return Tenant{}, fmt.Errorf("seed: %w", err)
		}
	}
	return t, nil
}

// CountRows returns the number of rows in table matching where.
func CountRows(ctx context.Context, db *sql.DB, table, where string, args ...any) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s", table)
	if where != "" {
		query += " WHERE " + where
	}
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
