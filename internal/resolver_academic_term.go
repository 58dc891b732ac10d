package internal

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	campus "github.com/lychee-technology/campus"
)

const academicTermEntity = "AcademicTerm"

var academicTermDateVariables = []string{"startDate", "endDate"}

type createAcademicTermMaps struct {
	schools map[uuid.UUID]*campus.School
	// terms holds the active terms of each school.
	terms map[uuid.UUID][]*campus.AcademicTerm
}

type createAcademicTerms struct {
	CreateVariant[*campus.AcademicTerm]
	env mutationEnv
}

func (m *createAcademicTerms) EntityName() string { return academicTermEntity }

func (m *createAcademicTerms) Normalize(inputs []campus.CreateAcademicTermInput) []campus.CreateAcademicTermInput {
	out := make([]campus.CreateAcademicTermInput, len(inputs))
	for i, in := range inputs {
		in.Name = NormalizeName(in.Name)
		out[i] = in
	}
	return out
}

func createTermSchoolID(in campus.CreateAcademicTermInput) uuid.UUID { return in.SchoolID }

func (m *createAcademicTerms) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.CreateAcademicTermInput) (createAcademicTermMaps, error) {
	schoolIDs := Distinct(idsOf(inputs, createTermSchoolID))

	var maps createAcademicTermMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		maps.schools, err = FetchByIDs[campus.School](gctx, r, schoolIDs, campus.ActiveOnly)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.AcademicTerm](gctx, r,
			campus.Condition{Column: "school_id", Values: schoolIDs},
			StatusCondition(campus.StatusActive))
		maps.terms = GroupBy(rows, func(t *campus.AcademicTerm) uuid.UUID { return t.SchoolID })
		return err
	})
	return maps, g.Wait()
}

func (m *createAcademicTerms) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.CreateAcademicTermInput, maps createAcademicTermMaps) error {
	return auth.RejectIfNotAllowed(ctx, schoolScope(idsOf(inputs, createTermSchoolID), maps.schools), campus.PermissionCreateAcademicTerm)
}

func (m *createAcademicTerms) ValidateOverAllInputs(inputs []campus.CreateAcademicTermInput, _ createAcademicTermMaps) ([]Indexed[campus.CreateAcademicTermInput], []*campus.APIError) {
	ranges := make([]DateRange, len(inputs))
	keys := make([]campus.SchoolNameKey, len(inputs))
	for i, in := range inputs {
		ranges[i] = DateRange{Start: in.StartDate, End: in.EndDate}
		keys[i] = campus.SchoolNameKey{SchoolID: in.SchoolID, Name: in.Name}
	}
	rangeErrs := ValidateDateRanges(ranges, academicTermEntity, academicTermDateVariables)

	// Overlaps inside the call are only meaningful between well-formed ranges.
	var dated []ParentedRange
	for i, in := range inputs {
		if !rangeErrs.Has(i) {
			dated = append(dated, ParentedRange{Index: i, ParentID: in.SchoolID, Range: ranges[i]})
		}
	}
	overlapErrs := ValidateNoDateOverlapsForParent(dated, nil, academicTermEntity, schoolEntity, "schoolId")
	return FilterInvalidInputs(inputs,
		ValidateDataAgainstSchema(inputs, nameInputSchema, "CreateAcademicTermInput"),
		ValidateNoDuplicate(keys, "CreateAcademicTermInput", []string{"schoolId", "name"}),
		rangeErrs,
		overlapErrs,
	)
}

func (m *createAcademicTerms) Validate(index int, in campus.CreateAcademicTermInput, maps createAcademicTermMaps) []*campus.APIError {
	if _, ok := maps.schools[in.SchoolID]; !ok {
		return []*campus.APIError{campus.NewEntityError(campus.EntityNonExistent, index, schoolEntity, in.SchoolID.String(), "", "")}
	}

	var errs []*campus.APIError
	existing := maps.terms[in.SchoolID]
	for _, t := range existing {
		if t.Name == in.Name {
			errs = append(errs, campus.NewEntityError(campus.EntityExistentChild, index,
				academicTermEntity, in.Name, schoolEntity, in.SchoolID.String(), "schoolId", "name"))
			break
		}
	}

	persisted := make([]DateRange, len(existing))
	for i, t := range existing {
		persisted[i] = DateRange{Start: t.StartDate, End: t.EndDate}
	}
	overlaps := ValidateNoDateOverlapsForParent(
		[]ParentedRange{{Index: index, ParentID: in.SchoolID, Range: DateRange{Start: in.StartDate, End: in.EndDate}}},
		map[uuid.UUID][]DateRange{in.SchoolID: persisted},
		academicTermEntity, schoolEntity, "schoolId")
	return append(errs, overlaps.Sorted()...)
}

func (m *createAcademicTerms) Process(_ int, in campus.CreateAcademicTermInput, _ createAcademicTermMaps) ProcessedResult[*campus.AcademicTerm] {
	return ProcessedResult[*campus.AcademicTerm]{Output: &campus.AcademicTerm{
		ID:        m.env.newID(),
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		SchoolID:  in.SchoolID,
		Lifecycle: m.env.lifecycle(),
	}}
}

func (m *createAcademicTerms) BuildOutput(r ProcessedResult[*campus.AcademicTerm]) campus.AcademicTermNode {
	return campus.NewAcademicTermNode(r.Output)
}

type deleteAcademicTermMaps struct {
	main    map[uuid.UUID]*campus.AcademicTerm
	schools map[uuid.UUID]*campus.School
	// classes holds the active classes of each term.
	classes map[uuid.UUID][]*campus.Class
}

// deleteAcademicTerms refuses to delete a term that still has active classes.
type deleteAcademicTerms struct {
	NoNormalize[campus.DeleteInput]
	DeleteVariant[*campus.AcademicTerm]
	env mutationEnv
}

func newDeleteAcademicTerms(env mutationEnv) *deleteAcademicTerms {
	return &deleteAcademicTerms{DeleteVariant: DeleteVariant[*campus.AcademicTerm]{At: env.now}, env: env}
}

func (m *deleteAcademicTerms) EntityName() string { return academicTermEntity }

func (m *deleteAcademicTerms) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.DeleteInput) (deleteAcademicTermMaps, error) {
	ids := Distinct(deleteIDs(inputs))

	var maps deleteAcademicTermMaps
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		terms, err := FetchByIDs[campus.AcademicTerm](gctx, r, ids, nil)
		if err != nil {
			return err
		}
		maps.main = terms
		schoolIDs := make([]uuid.UUID, 0, len(terms))
		for _, t := range terms {
			schoolIDs = append(schoolIDs, t.SchoolID)
		}
		maps.schools, err = FetchByIDs[campus.School](gctx, r, Distinct(schoolIDs), nil)
		return err
	})
	g.Go(func() error {
		rows, err := FetchWhere[campus.Class](gctx, r,
			campus.Condition{Column: "academic_term_id", Values: ids},
			StatusCondition(campus.StatusActive))
		maps.classes = GroupBy(rows, func(c *campus.Class) uuid.UUID {
			if c.AcademicTermID == nil {
				return uuid.Nil
			}
			return *c.AcademicTermID
		})
		return err
	})
	return maps, g.Wait()
}

func (m *deleteAcademicTerms) Authorize(ctx context.Context, auth campus.Authorizer, _ []campus.DeleteInput, maps deleteAcademicTermMaps) error {
	schoolIDs := make([]uuid.UUID, 0, len(maps.main))
	for _, t := range maps.main {
		schoolIDs = append(schoolIDs, t.SchoolID)
	}
	return auth.RejectIfNotAllowed(ctx, schoolScope(schoolIDs, maps.schools), campus.PermissionDeleteAcademicTerm)
}

func (m *deleteAcademicTerms) ValidateOverAllInputs(inputs []campus.DeleteInput, maps deleteAcademicTermMaps) ([]Indexed[campus.DeleteInput], []*campus.APIError) {
	return FilterInvalidInputs(inputs, ValidateActiveAndNoDuplicates(deleteIDs(inputs), academicTermEntity, maps.main)...)
}

func (m *deleteAcademicTerms) Validate(index int, in campus.DeleteInput, maps deleteAcademicTermMaps) []*campus.APIError {
	if len(maps.classes[in.ID]) > 0 {
		return []*campus.APIError{campus.NewMustHaveExactlyNError(index, academicTermEntity, in.ID.String(), "classes", 0)}
	}
	return nil
}

func (m *deleteAcademicTerms) Process(_ int, in campus.DeleteInput, maps deleteAcademicTermMaps) ProcessedResult[*campus.AcademicTerm] {
	return ProcessedResult[*campus.AcademicTerm]{Output: m.MarkDeleted(maps.main[in.ID])}
}

func (m *deleteAcademicTerms) BuildOutput(r ProcessedResult[*campus.AcademicTerm]) campus.AcademicTermNode {
	return campus.NewAcademicTermNode(r.Output)
}
