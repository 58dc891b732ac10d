package campus

import (
	"context"
)

// MutationService runs bulk mutations. Every method validates the whole batch,
// writes it in one transaction and returns one node per input in input order.
// Validation failures are returned as *APIErrorCollection.
type MutationService interface {
	// Curriculum
	CreateAgeRanges(ctx context.Context, auth Authorizer, inputs []CreateAgeRangeInput) ([]AgeRangeNode, error)
	UpdateAgeRanges(ctx context.Context, auth Authorizer, inputs []UpdateAgeRangeInput) ([]AgeRangeNode, error)
	DeleteAgeRanges(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]AgeRangeNode, error)
	DeleteGrades(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]GradeNode, error)
	CreateCategories(ctx context.Context, auth Authorizer, inputs []CreateCategoryInput) ([]CategoryNode, error)
	UpdateCategories(ctx context.Context, auth Authorizer, inputs []UpdateCategoryInput) ([]CategoryNode, error)
	DeleteCategories(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]CategoryNode, error)
	AddSubcategoriesToCategories(ctx context.Context, auth Authorizer, inputs []CategorySubcategoriesInput) ([]CategoryNode, error)
	RemoveSubcategoriesFromCategories(ctx context.Context, auth Authorizer, inputs []CategorySubcategoriesInput) ([]CategoryNode, error)
	CreateSubcategories(ctx context.Context, auth Authorizer, inputs []CreateSubcategoryInput) ([]SubcategoryNode, error)
	DeleteSubcategories(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]SubcategoryNode, error)

	// Schools
	CreateSchools(ctx context.Context, auth Authorizer, inputs []CreateSchoolInput) ([]SchoolNode, error)
	UpdateSchools(ctx context.Context, auth Authorizer, inputs []UpdateSchoolInput) ([]SchoolNode, error)
	DeleteSchools(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]SchoolNode, error)
	AddUsersToSchools(ctx context.Context, auth Authorizer, inputs []AddUsersToSchoolInput) ([]SchoolNode, error)
	ReactivateUsersFromSchools(ctx context.Context, auth Authorizer, inputs []SchoolUsersInput) ([]SchoolNode, error)
	RemoveUsersFromSchools(ctx context.Context, auth Authorizer, inputs []SchoolUsersInput) ([]SchoolNode, error)
	DeleteUsersFromSchools(ctx context.Context, auth Authorizer, inputs []SchoolUsersInput) ([]SchoolNode, error)

	// Organizations
	AddUsersToOrganizations(ctx context.Context, auth Authorizer, inputs []AddUsersToOrganizationInput) ([]OrganizationNode, error)
	RemoveUsersFromOrganizations(ctx context.Context, auth Authorizer, inputs []OrganizationUsersInput) ([]OrganizationNode, error)

	// Academic terms
	CreateAcademicTerms(ctx context.Context, auth Authorizer, inputs []CreateAcademicTermInput) ([]AcademicTermNode, error)
	DeleteAcademicTerms(ctx context.Context, auth Authorizer, inputs []DeleteInput) ([]AcademicTermNode, error)
}
