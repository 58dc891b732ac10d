package internal

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

type createSubcategoryMaps struct {
	organizations map[uuid.UUID]*campus.Organization
	conflicting   map[campus.OrgNameKey]*campus.Subcategory
}

type createSubcategories struct {
	CreateVariant[*campus.Subcategory]
	env mutationEnv
}

func (m *createSubcategories) EntityName() string { return subcategoryEntity }

func (m *createSubcategories) Normalize(inputs []campus.CreateSubcategoryInput) []campus.CreateSubcategoryInput {
	out := make([]campus.CreateSubcategoryInput, len(inputs))
	for i, in := range inputs {
		in.Name = NormalizeName(in.Name)
		out[i] = in
	}
	return out
}

func (m *createSubcategories) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CreateSubcategoryInput) (createSubcategoryMaps, error) {
	orgIDs := make([]uuid.UUID, len(inputs))
	names := make([]string, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
		names[i] = in.Name
	}

	var maps createSubcategoryMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.organizations, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.Subcategory](gctx, r,
			campus.Condition{Column: "name", Values: Distinct(names)},
			campus.Condition{Column: "organization_id", Values: Distinct(orgIDs)},
			StatusCondition(campus.StatusActive))
		maps.conflicting = KeyBy(rows, func(s *campus.Subcategory) campus.OrgNameKey {
			return campus.OrgNameKey{OrganizationID: campus.OrgOf(s.OrganizationID), Name: s.Name}
		})
		return err
	})
	return maps, g.Wait()
}

func (m *createSubcategories) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateSubcategoryInput, _ createSubcategoryMaps) error {
	orgIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
	}
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(orgIDs)}, campus.PermissionCreateSubjects)
}

func (m *createSubcategories) ValidateOverAllInputs(inputs []campus.CreateSubcategoryInput, _ createSubcategoryMaps) ([]Indexed[campus.CreateSubcategoryInput], []*campus.APIError) {
	keys := make([]campus.OrgNameKey, len(inputs))
	for i, in := range inputs {
		keys[i] = campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}
	}
	return FilterInvalidInputs(inputs,
		ValidateDataAgainstSchema(inputs, nameInputSchema, "CreateSubcategoryInput"),
		ValidateNoDuplicate(keys, "CreateSubcategoryInput", []string{"organizationId", "name"}))
}

func (m *createSubcategories) Validate(index int, in campus.CreateSubcategoryInput, maps createSubcategoryMaps) []*campus.APIError {
	_, errs := FlagNonExistent("Organization", index, []uuid.UUID{in.OrganizationID}, maps.organizations)
	if existing, ok := maps.conflicting[campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}]; ok {
		errs = append(errs, campus.NewExistentEntityAttributeError(subcategoryEntity, existing.ID.String(), "name", in.Name, index))
	}
	return errs
}

func (m *createSubcategories) Process(_ int, in campus.CreateSubcategoryInput, _ createSubcategoryMaps) ProcessedResult[*campus.Subcategory] {
	orgID := in.OrganizationID
	return ProcessedResult[*campus.Subcategory]{Output: &campus.Subcategory{
		ID:             m.env.newID(),
		Name:           in.Name,
		OrganizationID: &orgID,
		Lifecycle:      m.env.lifecycle(),
	}}
}

func (m *createSubcategories) BuildOutput(r ProcessedResult[*campus.Subcategory]) campus.SubcategoryNode {
	return campus.NewSubcategoryNode(r.Output)
}

func newDeleteSubcategories(env mutationEnv) *deleteMutation[campus.Subcategory, *campus.Subcategory, campus.SubcategoryNode] {
	return &deleteMutation[campus.Subcategory, *campus.Subcategory, campus.SubcategoryNode]{
		DeleteVariant: DeleteVariant[*campus.Subcategory]{At: env.now},
		entity:        subcategoryEntity,
		permission:    campus.PermissionDeleteSubjects,
		scope:         ownerScope[*campus.Subcategory],
		guard:         systemGuard[*campus.Subcategory](subcategoryEntity),
		node:          campus.NewSubcategoryNode,
	}
}
