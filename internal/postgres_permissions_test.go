package internal

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
)

func newPermissionsMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(true)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserPermissions_AdminBypasses(t *testing.T) {
	mock := newPermissionsMock(t)
	perms := NewUserPermissions(mock, uuid.New(), true)

	err := perms.RejectIfNotAllowed(context.Background(),
		campus.Scope{OrganizationIDs: []uuid.UUID{uuid.New()}}, campus.PermissionCreateAgeRange)
	require.NoError(t, err)
	assert.True(t, perms.IsAdmin())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_OrganizationScope(t *testing.T) {
	mock := newPermissionsMock(t)
	userID, orgX, orgY := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("^" + regexp.QuoteMeta(organizationPermissionsQuery) + "$").
		WithArgs(userID).
		WillReturnRows(mock.NewRows([]string{"organization_id", "permission_name"}).
			AddRow(orgX, string(campus.PermissionCreateAgeRange)).
			AddRow(orgY, string(campus.PermissionEditAgeRange)))

	perms := NewUserPermissions(mock, userID, false)
	ctx := context.Background()

	require.NoError(t, perms.RejectIfNotAllowed(ctx,
		campus.Scope{OrganizationIDs: []uuid.UUID{orgX}}, campus.PermissionCreateAgeRange))

	// loaded once; the second check does not query again
	err := perms.RejectIfNotAllowed(ctx,
		campus.Scope{OrganizationIDs: []uuid.UUID{orgX, orgY}}, campus.PermissionCreateAgeRange)
	require.Error(t, err)

	var permErr *campus.PermissionError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, "Organization", permErr.ScopeType)
	assert.Equal(t, []string{orgY.String()}, permErr.ScopeIDs)
	assert.Contains(t, err.Error(), "User("+userID.String()+") does not have Permission(create_age_range_20222) in Organization(")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_SchoolFallback(t *testing.T) {
	mock := newPermissionsMock(t)
	userID, orgID, schoolID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM organization_membership m")).
		WithArgs(userID).
		WillReturnRows(mock.NewRows([]string{"organization_id", "permission_name"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM school_membership m")).
		WithArgs(userID).
		WillReturnRows(mock.NewRows([]string{"school_id", "permission_name"}).
			AddRow(schoolID, string(campus.PermissionEditSchool)))

	perms := NewUserPermissions(mock, userID, false)
	err := perms.RejectIfNotAllowed(context.Background(), campus.Scope{
		OrganizationIDs: []uuid.UUID{orgID},
		SchoolIDs:       []uuid.UUID{schoolID},
	}, campus.PermissionEditSchool)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_BothScopesDenied(t *testing.T) {
	mock := newPermissionsMock(t)
	userID, orgID, schoolID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM organization_membership m")).
		WillReturnRows(mock.NewRows([]string{"organization_id", "permission_name"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM school_membership m")).
		WillReturnRows(mock.NewRows([]string{"school_id", "permission_name"}))

	perms := NewUserPermissions(mock, userID, false)
	err := perms.RejectIfNotAllowed(context.Background(), campus.Scope{
		OrganizationIDs: []uuid.UUID{orgID},
		SchoolIDs:       []uuid.UUID{schoolID},
	}, campus.PermissionEditSchool)

	var permErr *campus.PermissionError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, "Organization", permErr.ScopeType)
	assert.Equal(t, []string{orgID.String()}, permErr.ScopeIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_GrantsDoNotMixAcrossScopeKinds(t *testing.T) {
	userID := uuid.New()
	orgX, orgY := uuid.New(), uuid.New()
	schoolInX, schoolInY := uuid.New(), uuid.New()
	scope := campus.Scope{
		OrganizationIDs: []uuid.UUID{orgX, orgY},
		SchoolIDs:       []uuid.UUID{schoolInX, schoolInY},
	}
	expect := func(mock pgxmock.PgxPoolIface, schoolRows *pgxmock.Rows) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM organization_membership m")).
			WithArgs(userID).
			WillReturnRows(mock.NewRows([]string{"organization_id", "permission_name"}).
				AddRow(orgX, string(campus.PermissionEditSchool)))
		mock.ExpectQuery(regexp.QuoteMeta("FROM school_membership m")).
			WithArgs(userID).
			WillReturnRows(schoolRows)
	}

	t.Run("org grant on X plus school grant in Y is denied", func(t *testing.T) {
		mock := newPermissionsMock(t)
		expect(mock, mock.NewRows([]string{"school_id", "permission_name"}).
			AddRow(schoolInY, string(campus.PermissionEditSchool)))

		err := NewUserPermissions(mock, userID, false).RejectIfNotAllowed(context.Background(), scope, campus.PermissionEditSchool)
		var permErr *campus.PermissionError
		require.True(t, errors.As(err, &permErr))
		assert.Equal(t, "Organization", permErr.ScopeType)
		assert.Equal(t, []string{orgY.String()}, permErr.ScopeIDs)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("every school granted passes", func(t *testing.T) {
		mock := newPermissionsMock(t)
		expect(mock, mock.NewRows([]string{"school_id", "permission_name"}).
			AddRow(schoolInX, string(campus.PermissionEditSchool)).
			AddRow(schoolInY, string(campus.PermissionEditSchool)))

		err := NewUserPermissions(mock, userID, false).RejectIfNotAllowed(context.Background(), scope, campus.PermissionEditSchool)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserPermissions_SchoolOnlyDenied(t *testing.T) {
	mock := newPermissionsMock(t)
	userID, schoolID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM school_membership m")).
		WillReturnRows(mock.NewRows([]string{"school_id", "permission_name"}))

	perms := NewUserPermissions(mock, userID, false)
	err := perms.RejectIfNotAllowed(context.Background(),
		campus.Scope{SchoolIDs: []uuid.UUID{schoolID}}, campus.PermissionDeleteAcademicTerm)

	var permErr *campus.PermissionError
	require.True(t, errors.As(err, &permErr))
	assert.Equal(t, "School", permErr.ScopeType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_EmptyScopePasses(t *testing.T) {
	mock := newPermissionsMock(t)
	perms := NewUserPermissions(mock, uuid.New(), false)
	require.NoError(t, perms.RejectIfNotAllowed(context.Background(), campus.Scope{}, campus.PermissionDeleteGrade))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPermissions_LoadError(t *testing.T) {
	mock := newPermissionsMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM organization_membership m")).
		WillReturnError(errors.New("connection reset"))

	perms := NewUserPermissions(mock, uuid.New(), false)
	err := perms.RejectIfNotAllowed(context.Background(),
		campus.Scope{OrganizationIDs: []uuid.UUID{uuid.New()}}, campus.PermissionDeleteGrade)
	require.ErrorContains(t, err, "load permissions")
	assert.False(t, campus.IsPermissionError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
