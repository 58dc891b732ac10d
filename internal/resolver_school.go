package internal

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

const schoolEntity = "School"

var shortcodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// orgCodeKey identifies a school by organization and shortcode.
type orgCodeKey struct {
	organizationID uuid.UUID
	shortcode      string
}

// schoolShortcode formats a requested shortcode, or derives a stable one from the name.
func schoolShortcode(requested, name string, maxLength int) string {
	if code := NormalizeShortcode(requested); code != "" {
		return code
	}
	return GenerateShortcode(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), maxLength)
}

type createSchoolMaps struct {
	organizations map[uuid.UUID]*campus.Organization
	byName        map[campus.OrgNameKey]*campus.School
	byShortcode   map[orgCodeKey]*campus.School
}

type createSchools struct {
	CreateVariant[*campus.School]
	env mutationEnv
}

func (m *createSchools) EntityName() string { return schoolEntity }

func (m *createSchools) Normalize(inputs []campus.CreateSchoolInput) []campus.CreateSchoolInput {
	out := make([]campus.CreateSchoolInput, len(inputs))
	for i, in := range inputs {
		in.Name = NormalizeName(in.Name)
		in.Shortcode = schoolShortcode(in.Shortcode, in.Name, m.env.limits.ShortcodeMaxLength)
		out[i] = in
	}
	return out
}

func (m *createSchools) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CreateSchoolInput) (createSchoolMaps, error) {
	orgIDs := make([]uuid.UUID, len(inputs))
	names := make([]string, len(inputs))
	codes := make([]string, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
		names[i] = in.Name
		codes[i] = in.Shortcode
	}
	orgIDs = Distinct(orgIDs)

	var maps createSchoolMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.organizations, err = FetchByIDs[campus.Organization](gctx, r, orgIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.School](gctx, r,
			campus.Condition{Column: "organization_id", Values: orgIDs},
			campus.Condition{Column: "school_name", Values: Distinct(names)},
			StatusCondition(campus.StatusActive))
		maps.byName = KeyBy(rows, func(s *campus.School) campus.OrgNameKey {
			return campus.OrgNameKey{OrganizationID: s.OrganizationID, Name: s.Name}
		})
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.School](gctx, r,
			campus.Condition{Column: "organization_id", Values: orgIDs},
			campus.Condition{Column: "shortcode", Values: Distinct(codes)},
			StatusCondition(campus.StatusActive))
		maps.byShortcode = KeyBy(rows, func(s *campus.School) orgCodeKey {
			return orgCodeKey{organizationID: s.OrganizationID, shortcode: s.Shortcode}
		})
		return err
	})
	return maps, g.Wait()
}

func (m *createSchools) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateSchoolInput, _ createSchoolMaps) error {
	orgIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		orgIDs[i] = in.OrganizationID
	}
	return auth.RejectIfNotAllowed(ctx, campus.Scope{OrganizationIDs: Distinct(orgIDs)}, campus.PermissionCreateSchool)
}

func (m *createSchools) ValidateOverAllInputs(inputs []campus.CreateSchoolInput, _ createSchoolMaps) ([]Indexed[campus.CreateSchoolInput], []*campus.APIError) {
	names := make([]campus.OrgNameKey, len(inputs))
	codes := make([]orgCodeKey, len(inputs))
	for i, in := range inputs {
		names[i] = campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}
		codes[i] = orgCodeKey{organizationID: in.OrganizationID, shortcode: in.Shortcode}
	}
	return FilterInvalidInputs(inputs,
		ValidateDataAgainstSchema(inputs, schoolInputSchema(m.env.limits.ShortcodeMaxLength), "CreateSchoolInput"),
		ValidateNoDuplicate(names, "CreateSchoolInput", []string{"organizationId", "name"}),
		ValidateNoDuplicate(codes, "CreateSchoolInput", []string{"organizationId", "shortCode"}),
	)
}

func (m *createSchools) Validate(index int, in campus.CreateSchoolInput, maps createSchoolMaps) []*campus.APIError {
	var errs []*campus.APIError
	if _, ok := maps.organizations[in.OrganizationID]; !ok {
		errs = append(errs, campus.NewNonExistentOrInactiveError(index, []string{"organization_id"},
			"ID", "Organization", in.OrganizationID.String()))
	}
	if _, ok := maps.byName[campus.OrgNameKey{OrganizationID: in.OrganizationID, Name: in.Name}]; ok {
		errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index, schoolEntity, in.Name,
			"Organization", in.OrganizationID.String(), "organizationId", "name"))
	}
	if _, ok := maps.byShortcode[orgCodeKey{organizationID: in.OrganizationID, shortcode: in.Shortcode}]; ok {
		errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index, schoolEntity, in.Shortcode,
			"Organization", in.OrganizationID.String(), "organizationId", "shortCode"))
	}
	return errs
}

func (m *createSchools) Process(_ int, in campus.CreateSchoolInput, _ createSchoolMaps) ProcessedResult[*campus.School] {
	return ProcessedResult[*campus.School]{Output: &campus.School{
		ID:             m.env.newID(),
		Name:           in.Name,
		Shortcode:      in.Shortcode,
		OrganizationID: in.OrganizationID,
		Lifecycle:      m.env.lifecycle(),
	}}
}

func (m *createSchools) BuildOutput(r ProcessedResult[*campus.School]) campus.SchoolNode {
	return campus.NewSchoolNode(r.Output)
}

type updateSchoolMaps struct {
	main        map[uuid.UUID]*campus.School
	byName      map[campus.OrgNameKey]*campus.School
	byShortcode map[orgCodeKey]*campus.School
}

type updateSchools struct {
	UpdateVariant[*campus.School]
	env mutationEnv
}

func (m *updateSchools) EntityName() string { return schoolEntity }

func (m *updateSchools) Normalize(inputs []campus.UpdateSchoolInput) []campus.UpdateSchoolInput {
	out := make([]campus.UpdateSchoolInput, len(inputs))
	for i, in := range inputs {
		if in.Name != nil {
			in.Name = ptr(NormalizeName(*in.Name))
		}
		if in.Shortcode != nil {
			in.Shortcode = ptr(NormalizeShortcode(*in.Shortcode))
		}
		out[i] = in
	}
	return out
}

func updateSchoolIDs(inputs []campus.UpdateSchoolInput) []uuid.UUID {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	return ids
}

func (m *updateSchools) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.UpdateSchoolInput) (updateSchoolMaps, error) {
	var names, codes []string
	for _, in := range inputs {
		if in.Name != nil {
			names = append(names, *in.Name)
		}
		if in.Shortcode != nil {
			codes = append(codes, *in.Shortcode)
		}
	}

	var maps updateSchoolMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.main, err = FetchByIDs[campus.School](gctx, r, updateSchoolIDs(inputs), nil)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.School](gctx, r,
			campus.Condition{Column: "school_name", Values: Distinct(names)},
			StatusCondition(campus.StatusActive))
		maps.byName = KeyBy(rows, func(s *campus.School) campus.OrgNameKey {
			return campus.OrgNameKey{OrganizationID: s.OrganizationID, Name: s.Name}
		})
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.School](gctx, r,
			campus.Condition{Column: "shortcode", Values: Distinct(codes)},
			StatusCondition(campus.StatusActive))
		maps.byShortcode = KeyBy(rows, func(s *campus.School) orgCodeKey {
			return orgCodeKey{organizationID: s.OrganizationID, shortcode: s.Shortcode}
		})
		return err
	})
	return maps, g.Wait()
}

func schoolOwners(schools map[uuid.UUID]*campus.School) campus.Scope {
	orgs := NewSet[uuid.UUID]()
	for _, s := range schools {
		orgs.Add(s.OrganizationID)
	}
	return campus.Scope{OrganizationIDs: orgs.ToSlice()}
}

func (m *updateSchools) Authorize(ctx context.Context, auth campus.Authorizer, _ []campus.UpdateSchoolInput, maps updateSchoolMaps) error {
	return auth.RejectIfNotAllowed(ctx, schoolOwners(maps.main), campus.PermissionEditSchool)
}

func (m *updateSchools) ValidateOverAllInputs(inputs []campus.UpdateSchoolInput, maps updateSchoolMaps) ([]Indexed[campus.UpdateSchoolInput], []*campus.APIError) {
	names := make([]EntityAttributePair, len(inputs))
	codes := make([]EntityAttributePair, len(inputs))
	for i, in := range inputs {
		names[i] = EntityAttributePair{Value: in.Name}
		codes[i] = EntityAttributePair{Value: in.Shortcode}
		if s, ok := maps.main[in.ID]; ok {
			names[i].EntityID = ptr(s.OrganizationID)
			codes[i].EntityID = ptr(s.OrganizationID)
		}
	}
	return FilterInvalidInputs(inputs, Flatten(
		Maps(ValidateAtLeastOne(inputs, "UpdateSchoolInput", []string{"name", "shortCode"},
			func(in campus.UpdateSchoolInput, field string) bool {
				if field == "name" {
					return in.Name != nil
				}
				return in.Shortcode != nil
			})),
		ValidateActiveAndNoDuplicates(updateSchoolIDs(inputs), schoolEntity, maps.main),
		Maps(
			ValidateDataAgainstSchema(inputs, updateSchoolInputSchema, "UpdateSchoolInput"),
			ValidateNoDuplicateAttribute(names, schoolEntity, "name"),
			ValidateNoDuplicateAttribute(codes, schoolEntity, "shortCode"),
		),
	)...)
}

func (m *updateSchools) Validate(index int, in campus.UpdateSchoolInput, maps updateSchoolMaps) []*campus.APIError {
	current := maps.main[in.ID]
	orgID := current.OrganizationID

	var errs []*campus.APIError
	if in.Name != nil {
		if other, ok := maps.byName[campus.OrgNameKey{OrganizationID: orgID, Name: *in.Name}]; ok && other.ID != current.ID {
			errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index, schoolEntity, *in.Name,
				"Organization", orgID.String(), "organizationId", "name"))
		}
	}
	if in.Shortcode != nil {
		code := *in.Shortcode
		if limit := m.env.limits.ShortcodeMaxLength; !shortcodePattern.MatchString(code) || len(code) > limit {
			errs = append(errs, campus.NewSchemaError(index, schoolEntity, "shortCode",
				fmt.Sprintf("must be 1 to %d upper-case letters or digits", limit)))
		} else if other, ok := maps.byShortcode[orgCodeKey{organizationID: orgID, shortcode: code}]; ok && other.ID != current.ID {
			errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index, schoolEntity, code,
				"Organization", orgID.String(), "organizationId", "shortCode"))
		}
	}
	return errs
}

func (m *updateSchools) Process(_ int, in campus.UpdateSchoolInput, maps updateSchoolMaps) ProcessedResult[*campus.School] {
	s := maps.main[in.ID]
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Shortcode != nil {
		s.Shortcode = *in.Shortcode
	}
	return ProcessedResult[*campus.School]{Output: s}
}

func (m *updateSchools) BuildOutput(r ProcessedResult[*campus.School]) campus.SchoolNode {
	return campus.NewSchoolNode(r.Output)
}

func newDeleteSchools(env mutationEnv) *deleteMutation[campus.School, *campus.School, campus.SchoolNode] {
	return &deleteMutation[campus.School, *campus.School, campus.SchoolNode]{
		DeleteVariant: DeleteVariant[*campus.School]{At: env.now},
		entity:        schoolEntity,
		permission:    campus.PermissionDeleteSchool,
		scope:         schoolOwners,
		node:          campus.NewSchoolNode,
	}
}
