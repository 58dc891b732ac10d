package internal

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

const (
	categoryEntity    = "Category"
	subcategoryEntity = "Subcategory"
)

func categoryOrgNameKey(c *campus.Category) campus.OrgNameKey {
	return campus.OrgNameKey{OrganizationID: campus.OrgOf(c.OrganizationID), Name: c.Name}
}

// linkedSubcategories groups the existing category links by category.
func linkedSubcategories(links []*campus.CategorySubcategory) map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, l := range links {
		out[l.CategoryID] = append(out[l.CategoryID], l.SubcategoryID)
	}
	return out
}

type createCategoryMaps struct {
	organizations map[uuid.UUID]*campus.Organization
	subcategories map[uuid.UUID]*campus.Subcategory
	conflicting   map[campus.OrgNameKey]*campus.Category
}

type createCategories struct {
	CreateVariant[*campus.Category]
	env mutationEnv
}

func (m *createCategories) EntityName() string { return categoryEntity }

func (m *createCategories) Normalize(inputs []campus.CreateCategoryInput) []campus.CreateCategoryInput {
	out := make([]campus.CreateCategoryInput, len(inputs))
	for i, in := range inputs {
		in.Name = NormalizeName(in.Name)
		out[i] = in
	}
	return out
}

func (m *createCategories) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CreateCategoryInput) (createCategoryMaps, error) {
	orgIDs := make([]uuid.UUID, len(inputs))
	names := make([]string, len(inputs))
	var subIDs []uuid.UUID
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
		names[i] = in.Name
		subIDs = append(subIDs, in.SubcategoryIDs...)
	}

	var maps createCategoryMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.organizations, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.subcategories, err = FetchByIDs[campus.Subcategory](gctx, r, subIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.Category](gctx, r,
			campus.Condition{Column: "name", Values: Distinct(names)},
			campus.Condition{Column: "organization_id", Values: Distinct(orgIDs)},
			StatusCondition(campus.StatusActive))
		maps.conflicting = KeyBy(rows, categoryOrgNameKey)
		return err
	})
	return maps, g.Wait()
}

func (m *createCategories) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateCategoryInput, _ createCategoryMaps) error {
	orgIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
	}
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(orgIDs)}, campus.PermissionCreateSubjects)
}

func (m *createCategories) ValidateOverAllInputs(inputs []campus.CreateCategoryInput, _ createCategoryMaps) ([]Indexed[campus.CreateCategoryInput], []*campus.APIError) {
	keys := make([]campus.OrgNameKey, len(inputs))
	subs := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		keys[i] = campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}
		subs[i] = in.SubcategoryIDs
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		Maps(
			ValidateDataAgainstSchema(inputs, nameInputSchema, "CreateCategoryInput"),
			ValidateNoDuplicate(keys, "CreateCategoryInput", []string{"organizationId", "name"}),
		),
		ValidateSubItemsLengthAndNoDuplicates(subs, "CreateCategoryInput", "subcategoryIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *createCategories) Validate(index int, in campus.CreateCategoryInput, maps createCategoryMaps) []*campus.APIError {
	_, errs := FlagNonExistent("Organization", index, []uuid.UUID{in.OrganizationID}, maps.organizations)

	key := campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}
	if existing, ok := maps.conflicting[key]; ok {
		errs = append(errs, campus.NewExistentEntityAttributeError(categoryEntity, existing.ID.String(), "name", in.Name, index))
	}

	if in.SubcategoryIDs == nil {
		return errs
	}
	return append(errs, ValidateSubItemsInOrg(subcategoryEntity, index, in.SubcategoryIDs, in.OrganizationID, maps.subcategories)...)
}

func (m *createCategories) Process(_ int, in campus.CreateCategoryInput, _ createCategoryMaps) ProcessedResult[*campus.Category] {
	orgID := in.OrganizationID
	return ProcessedResult[*campus.Category]{Output: &campus.Category{
		ID:             m.env.newID(),
		Name:           in.Name,
		OrganizationID: &orgID,
		SubcategoryIDs: in.SubcategoryIDs,
		Lifecycle:      m.env.lifecycle(),
	}}
}

func (m *createCategories) BuildOutput(r ProcessedResult[*campus.Category]) campus.CategoryNode {
	return campus.NewCategoryNode(r.Output)
}

type updateCategoryMaps struct {
	main          map[uuid.UUID]*campus.Category
	subcategories map[uuid.UUID]*campus.Subcategory
	conflicting   map[campus.OrgNameKey]*campus.Category
}

type updateCategories struct {
	UpdateVariant[*campus.Category]
	env mutationEnv
}

func (m *updateCategories) EntityName() string { return categoryEntity }

func (m *updateCategories) Normalize(inputs []campus.UpdateCategoryInput) []campus.UpdateCategoryInput {
	out := make([]campus.UpdateCategoryInput, len(inputs))
	for i, in := range inputs {
		if in.Name != nil {
			in.Name = ptr(NormalizeName(*in.Name))
		}
		out[i] = in
	}
	return out
}

func (m *updateCategories) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.UpdateCategoryInput) (updateCategoryMaps, error) {
	ids := make([]uuid.UUID, len(inputs))
	var names []string
	var subIDs []uuid.UUID
	for i, in := range inputs {
		ids[i] = in.ID
		if in.Name != nil {
			names = append(names, *in.Name)
		}
		subIDs = append(subIDs, in.SubcategoryIDs...)
	}

	var maps updateCategoryMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.Category](gctx, r, ids, nil)
		return err
	})
	g.Go(func() error {
		var err error
		maps.subcategories, err = FetchByIDs[campus.Subcategory](gctx, r, subIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.Category](gctx, r,
			campus.Condition{Column: "name", Values: Distinct(names)},
			StatusCondition(campus.StatusActive))
		maps.conflicting = KeyBy(rows, categoryOrgNameKey)
		return err
	})
	return maps, g.Wait()
}

func (m *updateCategories) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.UpdateCategoryInput, maps updateCategoryMaps) error {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	if err := FlagUnauthorized(categoryEntity, ids, maps.main, "system"); err != nil {
		return err
	}
	return auth.RejectIfNotAllowed(ctx, ownerScope(maps.main), campus.PermissionEditSubjects)
}

func (m *updateCategories) ValidateOverAllInputs(inputs []campus.UpdateCategoryInput, maps updateCategoryMaps) ([]Indexed[campus.UpdateCategoryInput], []*campus.APIError) {
	ids := make([]uuid.UUID, len(inputs))
	names := make([]EntityAttributePair, len(inputs))
	subs := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
		names[i] = EntityAttributePair{Value: in.Name}
		if c, ok := maps.main[in.ID]; ok {
			names[i].EntityID = ptr(campus.OrgOf(c.OrganizationID))
		}
		subs[i] = in.SubcategoryIDs
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		Maps(ValidateAtLeastOne(inputs, "UpdateCategoryInput", []string{"name", "subcategoryIds"},
			func(in campus.UpdateCategoryInput, field string) bool {
				if field == "name" {
					return in.Name != nil
				}
				return in.SubcategoryIDs != nil
			})),
		ValidateActiveAndNoDuplicates(ids, categoryEntity, maps.main),
		Maps(
			ValidateDataAgainstSchema(inputs, nameInputSchema, "UpdateCategoryInput"),
			ValidateNoDuplicateAttribute(names, categoryEntity, "name"),
		),
		ValidateSubItemsLengthAndNoDuplicates(subs, "UpdateCategoryInput", "subcategoryIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *updateCategories) Validate(index int, in campus.UpdateCategoryInput, maps updateCategoryMaps) []*campus.APIError {
	current := maps.main[in.ID]
	orgID := campus.OrgOf(current.OrganizationID)

	var errs []*campus.APIError
	if in.Name != nil {
		if other, ok := maps.conflicting[campus.OrgNameKey{OrganizationID: orgID, Name: *in.Name}]; ok && other.ID != current.ID {
			errs = append(errs, campus.NewExistentEntityAttributeError(categoryEntity, other.ID.String(), "name", *in.Name, index))
		}
	}
	if in.SubcategoryIDs != nil {
		errs = append(errs, ValidateSubItemsInOrg(subcategoryEntity, index, in.SubcategoryIDs, orgID, maps.subcategories)...)
	}
	return errs
}

func (m *updateCategories) Process(_ int, in campus.UpdateCategoryInput, maps updateCategoryMaps) ProcessedResult[*campus.Category] {
	c := maps.main[in.ID]
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.SubcategoryIDs != nil {
		c.SubcategoryIDs = in.SubcategoryIDs
	}
	return ProcessedResult[*campus.Category]{Output: c}
}

func (m *updateCategories) BuildOutput(r ProcessedResult[*campus.Category]) campus.CategoryNode {
	return campus.NewCategoryNode(r.Output)
}

func newDeleteCategories(env mutationEnv) *deleteMutation[campus.Category, *campus.Category, campus.CategoryNode] {
	return &deleteMutation[campus.Category, *campus.Category, campus.CategoryNode]{
		DeleteVariant: DeleteVariant[*campus.Category]{At: env.now},
		entity:        categoryEntity,
		permission:    campus.PermissionDeleteSubjects,
		scope:         ownerScope[*campus.Category],
		guard:         systemGuard[*campus.Category](categoryEntity),
		node:          campus.NewCategoryNode,
	}
}

type categoryLinkMaps struct {
	main          map[uuid.UUID]*campus.Category
	subcategories map[uuid.UUID]*campus.Subcategory
	linked        map[uuid.UUID][]uuid.UUID
}

// categoryLinks adds subcategories to categories, or removes them when remove is set.
type categoryLinks struct {
	NoNormalize[campus.CategorySubcategoriesInput]
	AddRemoveVariant[*campus.Category]
	env    mutationEnv
	remove bool
}

func (m *categoryLinks) EntityName() string { return categoryEntity }

func (m *categoryLinks) inputTypeName() string {
	if m.remove {
		return "RemoveSubcategoriesFromCategoryInput"
	}
	return "AddSubcategoriesToCategoryInput"
}

func (m *categoryLinks) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CategorySubcategoriesInput) (categoryLinkMaps, error) {
	catIDs := make([]uuid.UUID, len(inputs))
	var subIDs []uuid.UUID
	for i, in := range inputs {
		catIDs[i] = in.CategoryID
		subIDs = append(subIDs, in.SubcategoryIDs...)
	}

	var maps categoryLinkMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.Category](gctx, r, catIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		var err error
		maps.subcategories, err = FetchByIDs[campus.Subcategory](gctx, r, subIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		links, err := FetchWhere[campus.CategorySubcategory](gctx, r,
			campus.Condition{Column: "category_id", Values: Distinct(catIDs)})
		maps.linked = linkedSubcategories(links)
		return err
	})
	return maps, g.Wait()
}

func (m *categoryLinks) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CategorySubcategoriesInput, maps categoryLinkMaps) error {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.CategoryID
	}
	if err := FlagUnauthorized(categoryEntity, ids, maps.main, "system"); err != nil {
		return err
	}
	return auth.RejectIfNotAllowed(ctx, ownerScope(maps.main), campus.PermissionEditSubjects)
}

func (m *categoryLinks) ValidateOverAllInputs(inputs []campus.CategorySubcategoriesInput, _ categoryLinkMaps) ([]Indexed[campus.CategorySubcategoriesInput], []*campus.APIError) {
	ids := make([]uuid.UUID, len(inputs))
	subs := make([][]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.CategoryID
		subs[i] = in.SubcategoryIDs
		if subs[i] == nil {
			subs[i] = []uuid.UUID{}
		}
	}
	lim := m.env.limits
	return FilterInvalidInputs(inputs, Flatten(
		Maps(ValidateNoDuplicate(ids, m.inputTypeName(), []string{"categoryId"})),
		ValidateSubItemsLengthAndNoDuplicates(subs, m.inputTypeName(), "subcategoryIds", lim.SubItemsMinLength, lim.SubItemsMaxLength),
	)...)
}

func (m *categoryLinks) Validate(index int, in campus.CategorySubcategoriesInput, maps categoryLinkMaps) []*campus.APIError {
	categories, errs := FlagNonExistent(categoryEntity, index, []uuid.UUID{in.CategoryID}, maps.main)
	_, subErrs := FlagNonExistent(subcategoryEntity, index, in.SubcategoryIDs, maps.subcategories)
	errs = append(errs, subErrs...)
	if len(categories) != 1 {
		return errs
	}

	linked := NewSet(maps.linked[in.CategoryID]...)
	if m.remove {
		return append(errs, FlagNonExistentChild(categoryEntity, subcategoryEntity, index, in.CategoryID, in.SubcategoryIDs, linked)...)
	}

	present := make([]uuid.UUID, 0, len(in.SubcategoryIDs))
	for _, id := range in.SubcategoryIDs {
		if _, ok := maps.subcategories[id]; ok {
			present = append(present, id)
		}
	}
	orgID := campus.OrgOf(categories[0].OrganizationID)
	errs = append(errs, ValidateSubItemsInOrg(subcategoryEntity, index, present, orgID, maps.subcategories)...)
	return append(errs, FlagExistentChild(categoryEntity, subcategoryEntity, index, in.CategoryID, in.SubcategoryIDs, linked)...)
}

func (m *categoryLinks) Process(_ int, in campus.CategorySubcategoriesInput, maps categoryLinkMaps) ProcessedResult[*campus.Category] {
	c := maps.main[in.CategoryID]
	current := maps.linked[in.CategoryID]
	if m.remove {
		c.SubcategoryIDs = Without(current, in.SubcategoryIDs)
	} else {
		c.SubcategoryIDs = append(append([]uuid.UUID{}, current...), in.SubcategoryIDs...)
	}
	return ProcessedResult[*campus.Category]{Output: c}
}

func (m *categoryLinks) BuildOutput(r ProcessedResult[*campus.Category]) campus.CategoryNode {
	return campus.NewCategoryNode(r.Output)
}
