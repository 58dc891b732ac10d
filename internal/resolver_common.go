package internal

import (
	"context"
	"time"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

// mutationEnv is the per-call state every resolver shares.
type mutationEnv struct {
	now        time.Time
	newID      func() uuid.UUID
	limits     campus.LimitsConfig
	validation campus.ValidationConfig
	audit      bool
	actor      uuid.UUID
}

func (e mutationEnv) lifecycle() campus.Lifecycle {
	return campus.Lifecycle{Status: campus.StatusActive, CreatedAt: e.now}
}

// ownerScope collects the organizations owning the given entities.
func ownerScope[PE campus.Owned](m map[uuid.UUID]PE) campus.Scope {
	orgs := NewSet[uuid.UUID]()
	for _, e := range m {
		if owner := e.OwningOrganization(); owner != nil {
			orgs.Add(*owner)
		}
	}
	return campus.Scope{OrganizationIDs: orgs.ToSlice()}
}

// schoolScope covers the given schools and the organizations they belong to.
func schoolScope(schoolIDs []uuid.UUID, schools map[uuid.UUID]*campus.School) campus.Scope {
	orgs := NewSet[uuid.UUID]()
	for _, id := range schoolIDs {
		if s, ok := schools[id]; ok {
			orgs.Add(s.OrganizationID)
		}
	}
	return campus.Scope{OrganizationIDs: orgs.ToSlice(), SchoolIDs: Distinct(schoolIDs)}
}

func deleteIDs(inputs []campus.DeleteInput) []uuid.UUID {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	return ids
}

// deleteMutation soft-deletes entities addressed by id. Targets are fetched
// in any status so inactive ones are reported rather than silently missing.
type deleteMutation[E any, PE interface {
	*E
	deletable
}, N any] struct {
	NoNormalize[campus.DeleteInput]
	DeleteVariant[PE]

	entity     string
	permission campus.PermissionName
	scope      func(main map[uuid.UUID]PE) campus.Scope
	// guard rejects the whole call before the permission check, e.g. for system entities.
	guard func(ids []uuid.UUID, main map[uuid.UUID]PE) error
	node  func(PE) N
}

func (d *deleteMutation[E, PE, N]) EntityName() string { return d.entity }

func (d *deleteMutation[E, PE, N]) GenerateEntityMaps(ctx context.Context, r campus.Reader, inputs []campus.DeleteInput) (map[uuid.UUID]PE, error) {
	return FetchByIDs[E, PE](ctx, r, deleteIDs(inputs), nil)
}

func (d *deleteMutation[E, PE, N]) Authorize(ctx context.Context, auth campus.Authorizer, inputs []campus.DeleteInput, main map[uuid.UUID]PE) error {
	if d.guard != nil {
		if err := d.guard(deleteIDs(inputs), main); err != nil {
			return err
		}
	}
	return auth.RejectIfNotAllowed(ctx, d.scope(main), d.permission)
}

func (d *deleteMutation[E, PE, N]) ValidateOverAllInputs(inputs []campus.DeleteInput, main map[uuid.UUID]PE) ([]Indexed[campus.DeleteInput], []*campus.APIError) {
	return FilterInvalidInputs(inputs, ValidateActiveAndNoDuplicates(deleteIDs(inputs), d.entity, main)...)
}

func (d *deleteMutation[E, PE, N]) Validate(int, campus.DeleteInput, map[uuid.UUID]PE) []*campus.APIError {
	return nil
}

func (d *deleteMutation[E, PE, N]) Process(_ int, in campus.DeleteInput, main map[uuid.UUID]PE) ProcessedResult[PE] {
	return ProcessedResult[PE]{Output: d.MarkDeleted(main[in.ID])}
}

func (d *deleteMutation[E, PE, N]) BuildOutput(r ProcessedResult[PE]) N {
	return d.node(r.Output)
}

// systemGuard refuses to touch system entities.
func systemGuard[PE campus.Owned](entity string) func([]uuid.UUID, map[uuid.UUID]PE) error {
	return func(ids []uuid.UUID, m map[uuid.UUID]PE) error {
		return FlagUnauthorized(entity, ids, m, "system")
	}
}

func ptr[T any](v T) *T { return &v }
