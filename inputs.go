package campus

import (
	"time"

	"github.com/google/uuid"
)

// DeleteInput targets one entity by id.
type DeleteInput struct {
	ID uuid.UUID `json:"id"`
}

// CreateAgeRangeInput describes a new organization-owned age range.
type CreateAgeRangeInput struct {
	Name           string       `json:"name"`
	LowValue       int          `json:"lowValue"`
	HighValue      int          `json:"highValue"`
	LowValueUnit   AgeRangeUnit `json:"lowValueUnit"`
	HighValueUnit  AgeRangeUnit `json:"highValueUnit"`
	OrganizationID uuid.UUID    `json:"organizationId"`
}

// UpdateAgeRangeInput changes the fields that are set.
type UpdateAgeRangeInput struct {
	ID            uuid.UUID     `json:"id"`
	Name          *string       `json:"name,omitempty"`
	LowValue      *int          `json:"lowValue,omitempty"`
	HighValue     *int          `json:"highValue,omitempty"`
	LowValueUnit  *AgeRangeUnit `json:"lowValueUnit,omitempty"`
	HighValueUnit *AgeRangeUnit `json:"highValueUnit,omitempty"`
}

// CreateCategoryInput describes a new category and its initial subcategories.
type CreateCategoryInput struct {
	Name           string      `json:"name"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	SubcategoryIDs []uuid.UUID `json:"subcategoryIds,omitempty"`
}

// UpdateCategoryInput renames a category and/or replaces its subcategories.
// A nil SubcategoryIDs leaves the links untouched.
type UpdateCategoryInput struct {
	ID             uuid.UUID   `json:"id"`
	Name           *string     `json:"name,omitempty"`
	SubcategoryIDs []uuid.UUID `json:"subcategoryIds,omitempty"`
}

// CategorySubcategoriesInput adds or removes subcategory links on a category.
type CategorySubcategoriesInput struct {
	CategoryID     uuid.UUID   `json:"categoryId"`
	SubcategoryIDs []uuid.UUID `json:"subcategoryIds"`
}

// CreateSubcategoryInput describes a new organization-owned subcategory.
type CreateSubcategoryInput struct {
	Name           string    `json:"name"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

// CreateSchoolInput describes a new school.
type CreateSchoolInput struct {
	Name           string    `json:"name"`
	Shortcode      string    `json:"shortcode"`
	OrganizationID uuid.UUID `json:"organizationId"`
}

// UpdateSchoolInput changes the fields that are set.
type UpdateSchoolInput struct {
	ID        uuid.UUID `json:"id"`
	Name      *string   `json:"name,omitempty"`
	Shortcode *string   `json:"shortcode,omitempty"`
}

// AddUsersToSchoolInput creates school memberships with the given roles.
type AddUsersToSchoolInput struct {
	SchoolID      uuid.UUID   `json:"schoolId"`
	UserIDs       []uuid.UUID `json:"userIds"`
	SchoolRoleIDs []uuid.UUID `json:"schoolRoleIds"`
}

// SchoolUsersInput targets memberships of users in one school.
type SchoolUsersInput struct {
	SchoolID uuid.UUID   `json:"schoolId"`
	UserIDs  []uuid.UUID `json:"userIds"`
}

// AddUsersToOrganizationInput creates organization memberships with the given roles.
type AddUsersToOrganizationInput struct {
	OrganizationID      uuid.UUID   `json:"organizationId"`
	UserIDs             []uuid.UUID `json:"userIds"`
	OrganizationRoleIDs []uuid.UUID `json:"organizationRoleIds"`
	// Shortcode applies when exactly one user is added; otherwise one is generated per user.
	Shortcode string `json:"shortcode,omitempty"`
}

// OrganizationUsersInput targets memberships of users in one organization.
type OrganizationUsersInput struct {
	OrganizationID uuid.UUID   `json:"organizationId"`
	UserIDs        []uuid.UUID `json:"userIds"`
}

// CreateAcademicTermInput describes a new term in a school.
type CreateAcademicTermInput struct {
	SchoolID  uuid.UUID `json:"schoolId"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}
