package campus

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle carries the columns every entity shares.
type Lifecycle struct {
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// CurrentStatus returns the lifecycle state.
func (l Lifecycle) CurrentStatus() Status { return l.Status }

// SoftDelete moves the entity to inactive and stamps deleted_at.
func (l *Lifecycle) SoftDelete(at time.Time) {
	l.Status = StatusInactive
	l.DeletedAt = &at
}

// Statused is implemented by every entity with a lifecycle state.
type Statused interface {
	CurrentStatus() Status
}

// Owned is implemented by curriculum entities that are either system-wide or
// owned by one organization.
type Owned interface {
	OwningOrganization() *uuid.UUID
	IsSystem() bool
}

// Organization is the top-level tenant.
type Organization struct {
	ID   uuid.UUID `json:"organizationId"`
	Name string    `json:"organizationName"`
	Lifecycle
}

func (o *Organization) Table() string        { return "organization" }
func (o *Organization) KeyColumns() []string { return []string{"organization_id"} }
func (o *Organization) EntityID() uuid.UUID  { return o.ID }
func (o *Organization) Columns() []string {
	return []string{"organization_id", "organization_name", "status", "created_at", "deleted_at"}
}
func (o *Organization) Values() []any {
	return []any{o.ID, o.Name, o.Status, o.CreatedAt, o.DeletedAt}
}
func (o *Organization) ScanTargets() []any {
	return []any{&o.ID, &o.Name, &o.Status, &o.CreatedAt, &o.DeletedAt}
}

// School belongs to exactly one organization.
type School struct {
	ID             uuid.UUID `json:"schoolId"`
	Name           string    `json:"schoolName"`
	Shortcode      string    `json:"shortcode"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Lifecycle
}

func (s *School) Table() string        { return "school" }
func (s *School) KeyColumns() []string { return []string{"school_id"} }
func (s *School) EntityID() uuid.UUID  { return s.ID }
func (s *School) Columns() []string {
	return []string{"school_id", "school_name", "shortcode", "organization_id", "status", "created_at", "deleted_at"}
}
func (s *School) Values() []any {
	return []any{s.ID, s.Name, s.Shortcode, s.OrganizationID, s.Status, s.CreatedAt, s.DeletedAt}
}
func (s *School) ScanTargets() []any {
	return []any{&s.ID, &s.Name, &s.Shortcode, &s.OrganizationID, &s.Status, &s.CreatedAt, &s.DeletedAt}
}

// User is a person who may hold memberships.
type User struct {
	ID         uuid.UUID `json:"userId"`
	GivenName  string    `json:"givenName"`
	FamilyName string    `json:"familyName"`
	Email      string    `json:"email"`
	Lifecycle
}

func (u *User) Table() string        { return "user" }
func (u *User) KeyColumns() []string { return []string{"user_id"} }
func (u *User) EntityID() uuid.UUID  { return u.ID }
func (u *User) Columns() []string {
	return []string{"user_id", "given_name", "family_name", "email", "status", "created_at", "deleted_at"}
}
func (u *User) Values() []any {
	return []any{u.ID, u.GivenName, u.FamilyName, u.Email, u.Status, u.CreatedAt, u.DeletedAt}
}
func (u *User) ScanTargets() []any {
	return []any{&u.ID, &u.GivenName, &u.FamilyName, &u.Email, &u.Status, &u.CreatedAt, &u.DeletedAt}
}

// Role groups permissions. System roles have no organization.
type Role struct {
	ID             uuid.UUID  `json:"roleId"`
	Name           string     `json:"roleName"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	System         bool       `json:"systemRole"`
	Lifecycle
}

func (r *Role) Table() string                  { return "role" }
func (r *Role) KeyColumns() []string           { return []string{"role_id"} }
func (r *Role) EntityID() uuid.UUID            { return r.ID }
func (r *Role) OwningOrganization() *uuid.UUID { return r.OrganizationID }
func (r *Role) IsSystem() bool                 { return r.System }
func (r *Role) Columns() []string {
	return []string{"role_id", "role_name", "organization_id", "system_role", "status", "created_at", "deleted_at"}
}
func (r *Role) Values() []any {
	return []any{r.ID, r.Name, r.OrganizationID, r.System, r.Status, r.CreatedAt, r.DeletedAt}
}
func (r *Role) ScanTargets() []any {
	return []any{&r.ID, &r.Name, &r.OrganizationID, &r.System, &r.Status, &r.CreatedAt, &r.DeletedAt}
}

// AgeRangeUnit is the unit of an age range bound.
type AgeRangeUnit string

const (
	AgeRangeUnitYear  AgeRangeUnit = "year"
	AgeRangeUnitMonth AgeRangeUnit = "month"
)

// AgeRange is a curriculum age band.
type AgeRange struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	LowValue       int          `json:"lowValue"`
	HighValue      int          `json:"highValue"`
	LowValueUnit   AgeRangeUnit `json:"lowValueUnit"`
	HighValueUnit  AgeRangeUnit `json:"highValueUnit"`
	System         bool         `json:"system"`
	OrganizationID *uuid.UUID   `json:"organizationId,omitempty"`
	Lifecycle
}

func (a *AgeRange) Table() string                  { return "age_range" }
func (a *AgeRange) KeyColumns() []string           { return []string{"id"} }
func (a *AgeRange) EntityID() uuid.UUID            { return a.ID }
func (a *AgeRange) OwningOrganization() *uuid.UUID { return a.OrganizationID }
func (a *AgeRange) IsSystem() bool                 { return a.System }
func (a *AgeRange) Columns() []string {
	return []string{"id", "name", "low_value", "high_value", "low_value_unit", "high_value_unit",
		"system", "organization_id", "status", "created_at", "deleted_at"}
}
func (a *AgeRange) Values() []any {
	return []any{a.ID, a.Name, a.LowValue, a.HighValue, a.LowValueUnit, a.HighValueUnit,
		a.System, a.OrganizationID, a.Status, a.CreatedAt, a.DeletedAt}
}
func (a *AgeRange) ScanTargets() []any {
	return []any{&a.ID, &a.Name, &a.LowValue, &a.HighValue, &a.LowValueUnit, &a.HighValueUnit,
		&a.System, &a.OrganizationID, &a.Status, &a.CreatedAt, &a.DeletedAt}
}

// Grade is a curriculum grade level.
type Grade struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	System         bool       `json:"system"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	Lifecycle
}

func (g *Grade) Table() string                  { return "grade" }
func (g *Grade) KeyColumns() []string           { return []string{"id"} }
func (g *Grade) EntityID() uuid.UUID            { return g.ID }
func (g *Grade) OwningOrganization() *uuid.UUID { return g.OrganizationID }
func (g *Grade) IsSystem() bool                 { return g.System }
func (g *Grade) Columns() []string {
	return []string{"id", "name", "system", "organization_id", "status", "created_at", "deleted_at"}
}
func (g *Grade) Values() []any {
	return []any{g.ID, g.Name, g.System, g.OrganizationID, g.Status, g.CreatedAt, g.DeletedAt}
}
func (g *Grade) ScanTargets() []any {
	return []any{&g.ID, &g.Name, &g.System, &g.OrganizationID, &g.Status, &g.CreatedAt, &g.DeletedAt}
}

// Category is a subject category that links to subcategories.
// SubcategoryIDs is nil unless the links were loaded or replaced.
type Category struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	System         bool        `json:"system"`
	OrganizationID *uuid.UUID  `json:"organizationId,omitempty"`
	SubcategoryIDs []uuid.UUID `json:"subcategories,omitempty"`
	Lifecycle
}

func (c *Category) Table() string                  { return "category" }
func (c *Category) KeyColumns() []string           { return []string{"id"} }
func (c *Category) EntityID() uuid.UUID            { return c.ID }
func (c *Category) OwningOrganization() *uuid.UUID { return c.OrganizationID }
func (c *Category) IsSystem() bool                 { return c.System }
func (c *Category) Columns() []string {
	return []string{"id", "name", "system", "organization_id", "status", "created_at", "deleted_at"}
}
func (c *Category) Values() []any {
	return []any{c.ID, c.Name, c.System, c.OrganizationID, c.Status, c.CreatedAt, c.DeletedAt}
}
func (c *Category) ScanTargets() []any {
	return []any{&c.ID, &c.Name, &c.System, &c.OrganizationID, &c.Status, &c.CreatedAt, &c.DeletedAt}
}
func (c *Category) Links() []LinkSet {
	if c.SubcategoryIDs == nil {
		return nil
	}
	return []LinkSet{{
		Table:        CategorySubcategoryTable,
		OwnerColumns: []string{"category_id"},
		OwnerKey:     []any{c.ID},
		ChildColumn:  "subcategory_id",
		ChildIDs:     c.SubcategoryIDs,
	}}
}

// CategorySubcategoryTable is the join table between categories and subcategories.
const CategorySubcategoryTable = "category_subcategory"

// CategorySubcategory is one row of the category to subcategory join table.
type CategorySubcategory struct {
	CategoryID    uuid.UUID
	SubcategoryID uuid.UUID
}

func (l *CategorySubcategory) Table() string        { return CategorySubcategoryTable }
func (l *CategorySubcategory) KeyColumns() []string { return []string{"category_id", "subcategory_id"} }
func (l *CategorySubcategory) Columns() []string    { return l.KeyColumns() }
func (l *CategorySubcategory) Values() []any        { return []any{l.CategoryID, l.SubcategoryID} }
func (l *CategorySubcategory) ScanTargets() []any   { return []any{&l.CategoryID, &l.SubcategoryID} }

// Subcategory is a leaf of the subject taxonomy.
type Subcategory struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	System         bool       `json:"system"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	Lifecycle
}

func (s *Subcategory) Table() string                  { return "subcategory" }
func (s *Subcategory) KeyColumns() []string           { return []string{"id"} }
func (s *Subcategory) EntityID() uuid.UUID            { return s.ID }
func (s *Subcategory) OwningOrganization() *uuid.UUID { return s.OrganizationID }
func (s *Subcategory) IsSystem() bool                 { return s.System }
func (s *Subcategory) Columns() []string {
	return []string{"id", "name", "system", "organization_id", "status", "created_at", "deleted_at"}
}
func (s *Subcategory) Values() []any {
	return []any{s.ID, s.Name, s.System, s.OrganizationID, s.Status, s.CreatedAt, s.DeletedAt}
}
func (s *Subcategory) ScanTargets() []any {
	return []any{&s.ID, &s.Name, &s.System, &s.OrganizationID, &s.Status, &s.CreatedAt, &s.DeletedAt}
}

// AcademicTerm is a dated period within a school.
type AcademicTerm struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	SchoolID  uuid.UUID `json:"schoolId"`
	Lifecycle
}

func (a *AcademicTerm) Table() string        { return "academic_term" }
func (a *AcademicTerm) KeyColumns() []string { return []string{"id"} }
func (a *AcademicTerm) EntityID() uuid.UUID  { return a.ID }
func (a *AcademicTerm) Columns() []string {
	return []string{"id", "name", "start_date", "end_date", "school_id", "status", "created_at", "deleted_at"}
}
func (a *AcademicTerm) Values() []any {
	return []any{a.ID, a.Name, a.StartDate, a.EndDate, a.SchoolID, a.Status, a.CreatedAt, a.DeletedAt}
}
func (a *AcademicTerm) ScanTargets() []any {
	return []any{&a.ID, &a.Name, &a.StartDate, &a.EndDate, &a.SchoolID, &a.Status, &a.CreatedAt, &a.DeletedAt}
}

// Class is only read here, to block deleting terms that still have classes.
type Class struct {
	ID             uuid.UUID  `json:"classId"`
	Name           string     `json:"className"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	AcademicTermID *uuid.UUID `json:"academicTermId,omitempty"`
	Lifecycle
}

func (c *Class) Table() string        { return "class" }
func (c *Class) KeyColumns() []string { return []string{"class_id"} }
func (c *Class) EntityID() uuid.UUID  { return c.ID }
func (c *Class) Columns() []string {
	return []string{"class_id", "class_name", "organization_id", "academic_term_id", "status", "created_at", "deleted_at"}
}
func (c *Class) Values() []any {
	return []any{c.ID, c.Name, c.OrganizationID, c.AcademicTermID, c.Status, c.CreatedAt, c.DeletedAt}
}
func (c *Class) ScanTargets() []any {
	return []any{&c.ID, &c.Name, &c.OrganizationID, &c.AcademicTermID, &c.Status, &c.CreatedAt, &c.DeletedAt}
}

// Membership join tables for role links.
const (
	OrganizationMembershipRoleTable = "organization_membership_role"
	SchoolMembershipRoleTable       = "school_membership_role"
)

// OrganizationMembership ties a user to an organization.
// RoleIDs is nil unless the role links are being written.
type OrganizationMembership struct {
	OrganizationID  uuid.UUID   `json:"organizationId"`
	UserID          uuid.UUID   `json:"userId"`
	Shortcode       string      `json:"shortcode"`
	Status          Status      `json:"status"`
	StatusUpdatedAt *time.Time  `json:"statusUpdatedAt,omitempty"`
	JoinTimestamp   time.Time   `json:"joinTimestamp"`
	RoleIDs         []uuid.UUID `json:"roleIds,omitempty"`
}

func (m *OrganizationMembership) Table() string { return "organization_membership" }
func (m *OrganizationMembership) KeyColumns() []string {
	return []string{"organization_id", "user_id"}
}
func (m *OrganizationMembership) CurrentStatus() Status { return m.Status }
func (m *OrganizationMembership) Key() MembershipKey {
	return MembershipKey{ParentID: m.OrganizationID, UserID: m.UserID}
}
func (m *OrganizationMembership) Columns() []string {
	return []string{"organization_id", "user_id", "shortcode", "status", "status_updated_at", "join_timestamp"}
}
func (m *OrganizationMembership) Values() []any {
	return []any{m.OrganizationID, m.UserID, m.Shortcode, m.Status, m.StatusUpdatedAt, m.JoinTimestamp}
}
func (m *OrganizationMembership) ScanTargets() []any {
	return []any{&m.OrganizationID, &m.UserID, &m.Shortcode, &m.Status, &m.StatusUpdatedAt, &m.JoinTimestamp}
}
func (m *OrganizationMembership) Links() []LinkSet {
	if m.RoleIDs == nil {
		return nil
	}
	return []LinkSet{{
		Table:        OrganizationMembershipRoleTable,
		OwnerColumns: []string{"organization_id", "user_id"},
		OwnerKey:     []any{m.OrganizationID, m.UserID},
		ChildColumn:  "role_id",
		ChildIDs:     m.RoleIDs,
	}}
}

// SchoolMembership ties a user to a school.
type SchoolMembership struct {
	SchoolID        uuid.UUID   `json:"schoolId"`
	UserID          uuid.UUID   `json:"userId"`
	Status          Status      `json:"status"`
	StatusUpdatedAt *time.Time  `json:"statusUpdatedAt,omitempty"`
	JoinTimestamp   time.Time   `json:"joinTimestamp"`
	RoleIDs         []uuid.UUID `json:"roleIds,omitempty"`
}

func (m *SchoolMembership) Table() string         { return "school_membership" }
func (m *SchoolMembership) KeyColumns() []string  { return []string{"school_id", "user_id"} }
func (m *SchoolMembership) CurrentStatus() Status { return m.Status }
func (m *SchoolMembership) Key() MembershipKey {
	return MembershipKey{ParentID: m.SchoolID, UserID: m.UserID}
}
func (m *SchoolMembership) Columns() []string {
	return []string{"school_id", "user_id", "status", "status_updated_at", "join_timestamp"}
}
func (m *SchoolMembership) Values() []any {
	return []any{m.SchoolID, m.UserID, m.Status, m.StatusUpdatedAt, m.JoinTimestamp}
}
func (m *SchoolMembership) ScanTargets() []any {
	return []any{&m.SchoolID, &m.UserID, &m.Status, &m.StatusUpdatedAt, &m.JoinTimestamp}
}
func (m *SchoolMembership) Links() []LinkSet {
	if m.RoleIDs == nil {
		return nil
	}
	return []LinkSet{{
		Table:        SchoolMembershipRoleTable,
		OwnerColumns: []string{"school_id", "user_id"},
		OwnerKey:     []any{m.SchoolID, m.UserID},
		ChildColumn:  "role_id",
		ChildIDs:     m.RoleIDs,
	}}
}
