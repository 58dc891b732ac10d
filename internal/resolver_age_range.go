package internal

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

const ageRangeEntity = "AgeRange"

type createAgeRangeMaps struct {
	organizations map[uuid.UUID]*campus.Organization
	existing      map[campus.OrgNameKey]*campus.AgeRange
}

type createAgeRanges struct {
	CreateVariant[*campus.AgeRange]
	env mutationEnv
}

func (m *createAgeRanges) EntityName() string { return ageRangeEntity }

func (m *createAgeRanges) Normalize(inputs []campus.CreateAgeRangeInput) []campus.CreateAgeRangeInput {
	out := make([]campus.CreateAgeRangeInput, len(inputs))
	for i, in := range inputs {
		in.Name = NormalizeName(in.Name)
		out[i] = in
	}
	return out
}

func (m *createAgeRanges) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CreateAgeRangeInput) (createAgeRangeMaps, error) {
	orgIDs := make([]uuid.UUID, len(inputs))
	names := make([]string, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
		names[i] = in.Name
	}

	var maps createAgeRangeMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.organizations, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.AgeRange](gctx, r,
			campus.Condition{Column: "organization_id", Values: Distinct(orgIDs)},
			campus.Condition{Column: "name", Values: Distinct(names)},
			StatusCondition(campus.StatusActive))
		maps.existing = KeyBy(rows, func(a *campus.AgeRange) campus.OrgNameKey {
			return campus.OrgNameKey{OrganizationID: campus.OrgOf(a.OrganizationID), Name: a.Name}
		})
		return err
	})
	return maps, g.Wait()
}

func (m *createAgeRanges) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateAgeRangeInput, _ createAgeRangeMaps) error {
	orgIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
	}
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(orgIDs)}, campus.PermissionCreateAgeRange)
}

func (m *createAgeRanges) ValidateOverAllInputs(inputs []campus.CreateAgeRangeInput, _ createAgeRangeMaps) ([]Indexed[campus.CreateAgeRangeInput], []*campus.APIError) {
	pairs := make([]NumberPair[int], len(inputs))
	lows := make([]*int, len(inputs))
	highs := make([]*int, len(inputs))
	names := make([]EntityAttributePair, len(inputs))
	for i, in := range inputs {
		pairs[i] = NumberPair[int]{A: in.LowValue, B: in.HighValue}
		lows[i] = ptr(in.LowValue)
		highs[i] = ptr(in.HighValue)
		names[i] = EntityAttributePair{EntityID: ptr(in.OrganizationID), Value: ptr(in.Name)}
	}
	bounds := m.env.validation
	return FilterInvalidInputs(inputs,
		ValidateDataAgainstSchema(inputs, ageRangeInputSchema, ageRangeEntity),
		ValidateNumberRange(lows, ageRangeEntity, "lowValue", bounds.AgeRangeLowMin, bounds.AgeRangeHighMax),
		ValidateNumberRange(highs, ageRangeEntity, "highValue", bounds.AgeRangeLowMin, bounds.AgeRangeHighMax),
		ValidateNumbersComparison(pairs, OpLt, ageRangeEntity, "lowValue", "highValue"),
		ValidateNoDuplicateAttribute(names, ageRangeEntity, "name"),
	)
}

func (m *createAgeRanges) Validate(index int, in campus.CreateAgeRangeInput, maps createAgeRangeMaps) []*campus.APIError {
	_, errs := FlagNonExistent("Organization", index, []uuid.UUID{in.OrganizationID}, maps.organizations)
	key := campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}
	if _, taken := maps.existing[key]; taken {
		errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index, ageRangeEntity, in.Name,
			"Organization", in.OrganizationID.String(), "organizationId", "name"))
	}
	return errs
}

func (m *createAgeRanges) Process(_ int, in campus.CreateAgeRangeInput, _ createAgeRangeMaps) ProcessedResult[*campus.AgeRange] {
	orgID := in.OrganizationID
	return ProcessedResult[*campus.AgeRange]{Output: &campus.AgeRange{
		ID:             m.env.newID(),
		Name:           in.Name,
		LowValue:       in.LowValue,
		HighValue:      in.HighValue,
		LowValueUnit:   in.LowValueUnit,
		HighValueUnit:  in.HighValueUnit,
		OrganizationID: &orgID,
		Lifecycle:      m.env.lifecycle(),
	}}
}

func (m *createAgeRanges) BuildOutput(r ProcessedResult[*campus.AgeRange]) campus.AgeRangeNode {
	return campus.NewAgeRangeNode(r.Output)
}

type updateAgeRangeMaps struct {
	main map[uuid.UUID]*campus.AgeRange
	// sameName holds active age ranges in the targets' organizations whose name an input claims.
	sameName map[campus.OrgNameKey]*campus.AgeRange
}

type updateAgeRanges struct {
	NoNormalize[campus.UpdateAgeRangeInput]
	UpdateVariant[*campus.AgeRange]
	env mutationEnv
}

func (m *updateAgeRanges) EntityName() string { return ageRangeEntity }

func updateAgeRangeIDs(inputs []campus.UpdateAgeRangeInput) []uuid.UUID {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	return ids
}

func (m *updateAgeRanges) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.UpdateAgeRangeInput) (updateAgeRangeMaps, error) {
	var maps updateAgeRangeMaps
	var err error
	maps.main, err = FetchByIDs[campus.AgeRange](ctx, r, updateAgeRangeIDs(inputs), nil)
	if err != nil {
		return maps, err
	}

	var names []string
	for _, in := range inputs {
		if in.Name != nil {
			names = append(names, *in.Name)
		}
	}
	orgs := ownerScope(maps.main).OrganizationIDs
	rows, err := FetchWhere[campus.AgeRange](ctx, r,
		campus.Condition{Column: "organization_id", Values: orgs},
		campus.Condition{Column: "name", Values: Distinct(names)},
		StatusCondition(campus.StatusActive))
	if err != nil {
		return maps, err
	}
	maps.sameName = KeyBy(rows, func(a *campus.AgeRange) campus.OrgNameKey {
		return campus.OrgNameKey{OrganizationID: campus.OrgOf(a.OrganizationID), Name: a.Name}
	})
	return maps, nil
}

func (m *updateAgeRanges) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.UpdateAgeRangeInput, maps updateAgeRangeMaps) error {
	if err := FlagUnauthorized(ageRangeEntity, updateAgeRangeIDs(inputs), maps.main, "system"); err != nil {
		return err
	}
	return auth.RejectIfNotAllowed(ctx, ownerScope(maps.main), campus.PermissionEditAgeRange)
}

func (m *updateAgeRanges) ValidateOverAllInputs(inputs []campus.UpdateAgeRangeInput, maps updateAgeRangeMaps) ([]Indexed[campus.UpdateAgeRangeInput], []*campus.APIError) {
	ids := updateAgeRangeIDs(inputs)
	lows := make([]*int, len(inputs))
	highs := make([]*int, len(inputs))
	names := make([]EntityAttributePair, len(inputs))
	for i, in := range inputs {
		lows[i] = in.LowValue
		highs[i] = in.HighValue
		names[i] = EntityAttributePair{Value: in.Name}
		if target, ok := maps.main[in.ID]; ok {
			names[i].EntityID = ptr(campus.OrgOf(target.OrganizationID))
		}
	}
	bounds := m.env.validation
	return FilterInvalidInputs(inputs, Flatten(
		Maps(ValidateAtLeastOne(inputs, ageRangeEntity, []string{"name", "lowValue", "highValue"},
			func(in campus.UpdateAgeRangeInput, field string) bool {
				switch field {
				case "name":
					return in.Name != nil
				case "lowValue":
					return in.LowValue != nil
				case "highValue":
					return in.HighValue != nil
				}
				return false
			})),
		ValidateActiveAndNoDuplicates(ids, ageRangeEntity, maps.main),
		Maps(
			ValidateDataAgainstSchema(inputs, updateAgeRangeInputSchema, "UpdateAgeRangeInput"),
			ValidateNumberRange(lows, ageRangeEntity, "lowValue", bounds.AgeRangeLowMin, bounds.AgeRangeHighMax),
			ValidateNumberRange(highs, ageRangeEntity, "highValue", bounds.AgeRangeLowMin, bounds.AgeRangeHighMax),
			ValidateNoDuplicateAttribute(names, ageRangeEntity, "name"),
		),
	)...)
}

func (m *updateAgeRanges) Validate(index int, in campus.UpdateAgeRangeInput, maps updateAgeRangeMaps) []*campus.APIError {
	current := maps.main[in.ID]
	var errs []*campus.APIError

	low, high := current.LowValue, current.HighValue
	if in.LowValue != nil {
		low = *in.LowValue
	}
	if in.HighValue != nil {
		high = *in.HighValue
	}
	if low >= high {
		errs = append(errs, campus.NewComparisonError(index, ageRangeEntity, "lowValue", "highValue", OpLt.Description()))
	}

	for _, unit := range []*campus.AgeRangeUnit{in.LowValueUnit, in.HighValueUnit} {
		if unit != nil && *unit != campus.AgeRangeUnitYear && *unit != campus.AgeRangeUnitMonth {
			errs = append(errs, campus.NewSchemaError(index, ageRangeEntity, "unit", "must be year or month"))
			break
		}
	}

	if in.Name != nil {
		key := campus.OrgNameKey{OrganizationID: campus.OrgOf(current.OrganizationID), Name: *in.Name}
		if other, ok := maps.sameName[key]; ok && other.ID != current.ID {
			errs = append(errs, campus.NewExistentEntityAttributeError(ageRangeEntity, current.ID.String(), "name", *in.Name, index))
		}
	}
	return errs
}

func (m *updateAgeRanges) Process(_ int, in campus.UpdateAgeRangeInput, maps updateAgeRangeMaps) ProcessedResult[*campus.AgeRange] {
	a := maps.main[in.ID]
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.LowValue != nil {
		a.LowValue = *in.LowValue
	}
	if in.HighValue != nil {
		a.HighValue = *in.HighValue
	}
	if in.LowValueUnit != nil {
		a.LowValueUnit = *in.LowValueUnit
	}
	if in.HighValueUnit != nil {
		a.HighValueUnit = *in.HighValueUnit
	}
	return ProcessedResult[*campus.AgeRange]{Output: a}
}

func (m *updateAgeRanges) BuildOutput(r ProcessedResult[*campus.AgeRange]) campus.AgeRangeNode {
	return campus.NewAgeRangeNode(r.Output)
}

func newDeleteAgeRanges(env mutationEnv) *deleteMutation[campus.AgeRange, *campus.AgeRange, campus.AgeRangeNode] {
	return &deleteMutation[campus.AgeRange, *campus.AgeRange, campus.AgeRangeNode]{
		DeleteVariant: DeleteVariant[*campus.AgeRange]{At: env.now},
		entity:        ageRangeEntity,
		permission:    campus.PermissionDeleteAgeRange,
		scope:         ownerScope[*campus.AgeRange],
		guard:         systemGuard[*campus.AgeRange](ageRangeEntity),
		node:          campus.NewAgeRangeNode,
	}
}
