package internal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestService(store campus.Store) campus.MutationService {
	cfg := campus.DefaultConfig()
	return NewMutationService(NewEngine(store, cfg.Limits, nil), cfg,
		WithClock(func() time.Time { return testNow }))
}

func active() campus.Lifecycle {
	return campus.Lifecycle{Status: campus.StatusActive, CreatedAt: testNow.Add(-24 * time.Hour)}
}

func inactive() campus.Lifecycle {
	deleted := testNow.Add(-time.Hour)
	return campus.Lifecycle{Status: campus.StatusInactive, CreatedAt: testNow.Add(-48 * time.Hour), DeletedAt: &deleted}
}

func newOrg(name string) *campus.Organization {
	return &campus.Organization{ID: uuid.New(), Name: name, Lifecycle: active()}
}

func newAgeRange(org *campus.Organization, name string, low, high int) *campus.AgeRange {
	a := &campus.AgeRange{
		ID:            uuid.New(),
		Name:          name,
		LowValue:      low,
		HighValue:     high,
		LowValueUnit:  campus.AgeRangeUnitYear,
		HighValueUnit: campus.AgeRangeUnitYear,
		Lifecycle:     active(),
	}
	if org == nil {
		a.System = true
	} else {
		a.OrganizationID = ptr(org.ID)
	}
	return a
}

func newSchool(org *campus.Organization, name, code string) *campus.School {
	return &campus.School{ID: uuid.New(), Name: name, Shortcode: code, OrganizationID: org.ID, Lifecycle: active()}
}

func newUser(given, family string) *campus.User {
	return &campus.User{ID: uuid.New(), GivenName: given, FamilyName: family, Lifecycle: active()}
}

func newRole(org *campus.Organization, name string) *campus.Role {
	return &campus.Role{ID: uuid.New(), Name: name, OrganizationID: ptr(org.ID), Lifecycle: active()}
}

func newSchoolMembership(s *campus.School, u *campus.User, status campus.Status) *campus.SchoolMembership {
	return &campus.SchoolMembership{SchoolID: s.ID, UserID: u.ID, Status: status, JoinTimestamp: testNow.Add(-72 * time.Hour)}
}

func newOrgMembership(o *campus.Organization, u *campus.User, status campus.Status) *campus.OrganizationMembership {
	return &campus.OrganizationMembership{OrganizationID: o.ID, UserID: u.ID, Shortcode: "M" + u.ID.String()[:4], Status: status, JoinTimestamp: testNow.Add(-72 * time.Hour)}
}

func deleteInputs(ids ...uuid.UUID) []campus.DeleteInput {
	out := make([]campus.DeleteInput, len(ids))
	for i, id := range ids {
		out[i] = campus.DeleteInput{ID: id}
	}
	return out
}

// requireCollection asserts err is an APIErrorCollection and returns its errors.
func requireCollection(t *testing.T, err error) []*campus.APIError {
	t.Helper()
	require.Error(t, err)
	c, ok := campus.AsAPIErrorCollection(err)
	require.True(t, ok, "expected APIErrorCollection, got %T: %v", err, err)
	return c.Errors
}

// errorIndexes lists the index of each error in order.
func errorIndexes(errs []*campus.APIError) []int {
	out := make([]int, 0, len(errs))
	for _, e := range errs {
		if e.Index != nil {
			out = append(out, *e.Index)
		}
	}
	return out
}

func errorCodes(errs []*campus.APIError) []campus.ErrorCode {
	out := make([]campus.ErrorCode, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}
