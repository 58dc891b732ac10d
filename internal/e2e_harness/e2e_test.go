package e2e_harness

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
	"github.com/lychee-technology/campus/factory"
)

func TestE2EMutationsAgainstPostgres(t *testing.T) {
	if testing.Short() || os.Getenv("E2E") != "1" {
		t.Skip("set E2E=1 to run against a Postgres container")
	}
	ctx := context.Background()
	h := &TestHarness{}

	if _, err := h.StartPostgres(ctx); err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer h.StopPostgres(ctx)

	require.NoError(t, ApplySchema(ctx, h.PGDB))
	tenant, err := SeedTenant(ctx, h.PGDB)
	require.NoError(t, err)

	pool, err := h.OpenPool(ctx)
	require.NoError(t, err)

	cfg := campus.DefaultConfig()
	cfg.Database = h.Database
	svc, err := factory.NewMutationServiceWithConfig(cfg, pool, factory.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)

	manager := factory.NewAuthorizer(pool, tenant.ManagerID, false)
	outsider := factory.NewAuthorizer(pool, tenant.OutsiderID, false)

	t.Run("create age ranges", func(t *testing.T) {
		nodes, err := svc.CreateAgeRanges(ctx, manager, []campus.CreateAgeRangeInput{
			{Name: "Preschool", LowValue: 3, HighValue: 5, LowValueUnit: campus.AgeRangeUnitYear, HighValueUnit: campus.AgeRangeUnitYear, OrganizationID: tenant.OrganizationID},
		})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, campus.StatusActive, nodes[0].Status)

		n, err := CountRows(ctx, h.PGDB, "age_range", "id = $1 AND organization_id = $2", nodes[0].ID, tenant.OrganizationID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("rejected batch writes nothing", func(t *testing.T) {
		_, err := svc.CreateSchools(ctx, manager, []campus.CreateSchoolInput{
			{Name: "Hillside", OrganizationID: tenant.OrganizationID},
			{Name: "Riverside Primary", OrganizationID: tenant.OrganizationID},
		})
		coll, ok := campus.AsAPIErrorCollection(err)
		require.True(t, ok, "expected an error collection, got %v", err)
		require.Equal(t, 1, coll.Len())
		assert.Equal(t, campus.ErrCodeExistentChild, coll.Errors[0].Code)

		n, err := CountRows(ctx, h.PGDB, "school", "school_name = $1", "Hillside")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("academic terms through organization grants", func(t *testing.T) {
		start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
		nodes, err := svc.CreateAcademicTerms(ctx, manager, []campus.CreateAcademicTermInput{
			{SchoolID: tenant.SchoolID, Name: "Autumn", StartDate: start, EndDate: start.AddDate(0, 3, 0)},
		})
		require.NoError(t, err)
		require.Len(t, nodes, 1)

		_, err = svc.CreateAcademicTerms(ctx, manager, []campus.CreateAcademicTermInput{
			{SchoolID: tenant.SchoolID, Name: "Overlap", StartDate: start.AddDate(0, 1, 0), EndDate: start.AddDate(0, 5, 0)},
		})
		coll, ok := campus.AsAPIErrorCollection(err)
		require.True(t, ok, "expected an error collection, got %v", err)
		assert.Equal(t, campus.ErrCodeOverlappingDateRange, coll.Errors[0].Code)
	})

	t.Run("membership round trip", func(t *testing.T) {
		_, err := svc.AddUsersToSchools(ctx, manager, []campus.AddUsersToSchoolInput{
			{SchoolID: tenant.SchoolID, UserIDs: []uuid.UUID{tenant.OutsiderID}, SchoolRoleIDs: []uuid.UUID{tenant.ManagerRoleID}},
		})
		require.NoError(t, err)

		n, err := CountRows(ctx, h.PGDB, "school_membership_role", "school_id = $1 AND user_id = $2", tenant.SchoolID, tenant.OutsiderID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("caller without grants is refused", func(t *testing.T) {
		_, err := svc.CreateAgeRanges(ctx, outsider, []campus.CreateAgeRangeInput{
			{Name: "Infants", LowValue: 0, HighValue: 12, LowValueUnit: campus.AgeRangeUnitMonth, HighValueUnit: campus.AgeRangeUnitMonth, OrganizationID: tenant.OrganizationID},
		})
		assert.True(t, campus.IsPermissionError(err), "got %v", err)
	})
}
