package internal

import (
	"context"
	"time"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

type mutationService struct {
	engine *Engine
	config *campus.Config
	clock  func() time.Time
	newID  func() uuid.UUID
}

// ServiceOption customizes a mutation service.
type ServiceOption func(*mutationService)

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *mutationService) { s.clock = clock }
}

// WithIDGenerator overrides how new entity ids are minted.
func WithIDGenerator(newID func() uuid.UUID) ServiceOption {
	return func(s *mutationService) { s.newID = newID }
}

// NewMutationService creates a MutationService running every mutation on engine.
func NewMutationService(engine *Engine, config *campus.Config, opts ...ServiceOption) campus.MutationService {
	if config == nil {
		config = campus.DefaultConfig()
	}
	s := &mutationService{
		engine: engine,
		config: config,
		clock:  func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *mutationService) env(auth campus.Authorizer) mutationEnv {
	return mutationEnv{
		now:        s.clock(),
		newID:      s.newID,
		limits:     s.config.Limits,
		validation: s.config.Validation,
		audit:      s.config.Logging.LogAudit,
		actor:      auth.UserID(),
	}
}

func (s *mutationService) CreateAgeRanges(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateAgeRangeInput) ([]campus.AgeRangeNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CreateAgeRangeInput, createAgeRangeMaps, *campus.AgeRange, campus.AgeRangeNode](&createAgeRanges{env: s.env(auth)}), inputs)
}

func (s *mutationService) UpdateAgeRanges(ctx context.Context, auth campus.Authorizer, inputs []campus.UpdateAgeRangeInput) ([]campus.AgeRangeNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.UpdateAgeRangeInput, updateAgeRangeMaps, *campus.AgeRange, campus.AgeRangeNode](&updateAgeRanges{env: s.env(auth)}), inputs)
}

func (s *mutationService) DeleteAgeRanges(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.AgeRangeNode, error) {
	return Run(ctx, s.engine, auth, deleteOf(newDeleteAgeRanges(s.env(auth))), inputs)
}

func (s *mutationService) DeleteGrades(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.GradeNode, error) {
	return Run(ctx, s.engine, auth, deleteOf(newDeleteGrades(s.env(auth))), inputs)
}

func (s *mutationService) CreateCategories(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateCategoryInput) ([]campus.CategoryNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CreateCategoryInput, createCategoryMaps, *campus.Category, campus.CategoryNode](&createCategories{env: s.env(auth)}), inputs)
}

func (s *mutationService) UpdateCategories(ctx context.Context, auth campus.Authorizer, inputs []campus.UpdateCategoryInput) ([]campus.CategoryNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.UpdateCategoryInput, updateCategoryMaps, *campus.Category, campus.CategoryNode](&updateCategories{env: s.env(auth)}), inputs)
}

func (s *mutationService) DeleteCategories(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.CategoryNode, error) {
	return Run(ctx, s.engine, auth, deleteOf(newDeleteCategories(s.env(auth))), inputs)
}

func (s *mutationService) AddSubcategoriesToCategories(ctx context.Context, auth campus.Authorizer, inputs []campus.CategorySubcategoriesInput) ([]campus.CategoryNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CategorySubcategoriesInput, categoryLinkMaps, *campus.Category, campus.CategoryNode](&categoryLinks{env: s.env(auth)}), inputs)
}

func (s *mutationService) RemoveSubcategoriesFromCategories(ctx context.Context, auth campus.Authorizer, inputs []campus.CategorySubcategoriesInput) ([]campus.CategoryNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CategorySubcategoriesInput, categoryLinkMaps, *campus.Category, campus.CategoryNode](&categoryLinks{env: s.env(auth), remove: true}), inputs)
}

func (s *mutationService) CreateSubcategories(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateSubcategoryInput) ([]campus.SubcategoryNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CreateSubcategoryInput, createSubcategoryMaps, *campus.Subcategory, campus.SubcategoryNode](&createSubcategories{env: s.env(auth)}), inputs)
}

func (s *mutationService) DeleteSubcategories(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.SubcategoryNode, error) {
	return Run(ctx, s.engine, auth, deleteOf(newDeleteSubcategories(s.env(auth))), inputs)
}

func (s *mutationService) CreateSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateSchoolInput) ([]campus.SchoolNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CreateSchoolInput, createSchoolMaps, *campus.School, campus.SchoolNode](&createSchools{env: s.env(auth)}), inputs)
}

func (s *mutationService) UpdateSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.UpdateSchoolInput) ([]campus.SchoolNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.UpdateSchoolInput, updateSchoolMaps, *campus.School, campus.SchoolNode](&updateSchools{env: s.env(auth)}), inputs)
}

func (s *mutationService) DeleteSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.SchoolNode, error) {
	return Run(ctx, s.engine, auth, deleteOf(newDeleteSchools(s.env(auth))), inputs)
}

func (s *mutationService) AddUsersToSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.AddUsersToSchoolInput) ([]campus.SchoolNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.AddUsersToSchoolInput, addUsersToSchoolMaps, *campus.School, campus.SchoolNode](&addUsersToSchools{env: s.env(auth)}), inputs)
}

func (s *mutationService) ReactivateUsersFromSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.SchoolUsersInput) ([]campus.SchoolNode, error) {
	return s.schoolMembershipStatus(ctx, auth, newReactivateUsersFromSchools(s.env(auth)), inputs)
}

func (s *mutationService) RemoveUsersFromSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.SchoolUsersInput) ([]campus.SchoolNode, error) {
	return s.schoolMembershipStatus(ctx, auth, newRemoveUsersFromSchools(s.env(auth)), inputs)
}

func (s *mutationService) DeleteUsersFromSchools(ctx context.Context, auth campus.Authorizer, inputs []campus.SchoolUsersInput) ([]campus.SchoolNode, error) {
	return s.schoolMembershipStatus(ctx, auth, newDeleteUsersFromSchools(s.env(auth)), inputs)
}

func (s *mutationService) schoolMembershipStatus(ctx context.Context, auth campus.Authorizer, m *schoolMembershipStatus, inputs []campus.SchoolUsersInput) ([]campus.SchoolNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.SchoolUsersInput, schoolMembershipStatusMaps, *campus.School, campus.SchoolNode](m), inputs)
}

func (s *mutationService) AddUsersToOrganizations(ctx context.Context, auth campus.Authorizer, inputs []campus.AddUsersToOrganizationInput) ([]campus.OrganizationNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.AddUsersToOrganizationInput, addUsersToOrganizationMaps, *campus.Organization, campus.OrganizationNode](&addUsersToOrganizations{env: s.env(auth)}), inputs)
}

func (s *mutationService) RemoveUsersFromOrganizations(ctx context.Context, auth campus.Authorizer, inputs []campus.OrganizationUsersInput) ([]campus.OrganizationNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.OrganizationUsersInput, removeUsersFromOrganizationMaps, *campus.Organization, campus.OrganizationNode](newRemoveUsersFromOrganizations(s.env(auth))), inputs)
}

func (s *mutationService) CreateAcademicTerms(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateAcademicTermInput) ([]campus.AcademicTermNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.CreateAcademicTermInput, createAcademicTermMaps, *campus.AcademicTerm, campus.AcademicTermNode](&createAcademicTerms{env: s.env(auth)}), inputs)
}

func (s *mutationService) DeleteAcademicTerms(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput) ([]campus.AcademicTermNode, error) {
	return Run(ctx, s.engine, auth, Mutation[campus.DeleteInput, deleteAcademicTermMaps, *campus.AcademicTerm, campus.AcademicTermNode](newDeleteAcademicTerms(s.env(auth))), inputs)
}

// deleteOf pins the type parameters of a generic delete for Run.
func deleteOf[E any, PE interface {
	*E
	deletable
}, N any](d *deleteMutation[E, PE, N]) Mutation[campus.DeleteInput, map[uuid.UUID]PE, PE, N] {
	return d
}
