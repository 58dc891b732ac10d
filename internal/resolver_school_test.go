package internal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
)

func TestCreateSchools(t *testing.T) {
	org := newOrg("Org")
	north := newSchool(org, "North", "N1")
	store := newMemStore(org, north)
	svc := newTestService(store)

	t.Run("generates a shortcode when none is given", func(t *testing.T) {
		out, err := svc.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "South", OrganizationID: org.ID},
			{Name: "East", Shortcode: " e2 ", OrganizationID: org.ID},
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Regexp(t, `^[A-Z0-9]{1,10}$`, out[0].Shortcode)
		assert.Equal(t, "E2", out[1].Shortcode)
		assert.Equal(t, campus.StatusActive, memLoad[campus.School](store, out[0].ID).Status)
	})

	t.Run("generated shortcodes are stable per name", func(t *testing.T) {
		limit := campus.DefaultConfig().Limits.ShortcodeMaxLength
		assert.Equal(t, schoolShortcode("", "West", limit), schoolShortcode("", "West", limit))
		assert.NotEqual(t, schoolShortcode("", "West", limit), schoolShortcode("", "Central", limit))
	})

	t.Run("flags repeated shortcodes in the batch", func(t *testing.T) {
		_, err := svc.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "Alpha", Shortcode: "AB", OrganizationID: org.ID},
			{Name: "Beta", Shortcode: "ab", OrganizationID: org.ID},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, 1, *errs[0].Index)
		assert.Equal(t, campus.ErrCodeDuplicateAttributeValues, errs[0].Code)
		assert.Equal(t, []string{"organizationId", "shortCode"}, errs[0].Variables)
	})

	t.Run("rejects names and shortcodes already in use", func(t *testing.T) {
		_, err := svc.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "North", Shortcode: "ZZ", OrganizationID: org.ID},
			{Name: "Harbour", Shortcode: "n1", OrganizationID: org.ID},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []int{0, 1}, errorIndexes(errs))
		assert.Equal(t, []campus.ErrorCode{campus.ErrCodeExistentChild, campus.ErrCodeExistentChild}, errorCodes(errs))
		assert.Equal(t, "N1", errs[1].EntityName)
	})

	t.Run("rejects malformed shortcodes", func(t *testing.T) {
		_, err := svc.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "Dash", Shortcode: "A-B", OrganizationID: org.ID},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, campus.ErrCodeInvalidFormat, errs[0].Code)
	})

	t.Run("shortcode length follows the configured limit", func(t *testing.T) {
		cfg := campus.DefaultConfig()
		cfg.Limits.ShortcodeMaxLength = 12
		store := newMemStore(org)
		wide := NewMutationService(NewEngine(store, cfg.Limits, nil), cfg,
			WithClock(func() time.Time { return testNow }))

		out, err := wide.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "Generated", OrganizationID: org.ID},
			{Name: "Explicit", Shortcode: "ABCDEFGHIJKL", OrganizationID: org.ID},
		})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Len(t, out[0].Shortcode, 12)
		assert.Equal(t, "ABCDEFGHIJKL", out[1].Shortcode)

		_, err = wide.CreateSchools(context.Background(), adminAuth(), []campus.CreateSchoolInput{
			{Name: "Too Long", Shortcode: "ABCDEFGHIJKLM", OrganizationID: org.ID},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []campus.ErrorCode{campus.ErrCodeInvalidFormat}, errorCodes(errs))
	})
}

func TestSchoolInputSchemaIsCachedPerLimit(t *testing.T) {
	assert.Same(t, schoolInputSchema(12), schoolInputSchema(12))
	assert.NotSame(t, schoolInputSchema(10), schoolInputSchema(12))
	assert.NoError(t, schoolInputSchema(12).Validate(campus.CreateSchoolInput{Name: "A", Shortcode: "ABCDEFGHIJKL"}))
	assert.Error(t, schoolInputSchema(10).Validate(campus.CreateSchoolInput{Name: "A", Shortcode: "ABCDEFGHIJKL"}))
}

func TestUpdateSchools(t *testing.T) {
	org := newOrg("Org")
	north, south := newSchool(org, "North", "N1"), newSchool(org, "South", "S1")

	t.Run("changes name and shortcode", func(t *testing.T) {
		store := newMemStore(org, north, south)
		out, err := newTestService(store).UpdateSchools(context.Background(), adminAuth(), []campus.UpdateSchoolInput{
			{ID: north.ID, Name: ptr("North  Campus"), Shortcode: ptr("nc")},
		})
		require.NoError(t, err)
		assert.Equal(t, "North Campus", out[0].Name)
		assert.Equal(t, "NC", memLoad[campus.School](store, north.ID).Shortcode)
	})

	t.Run("keeping its own shortcode is allowed", func(t *testing.T) {
		store := newMemStore(org, north, south)
		_, err := newTestService(store).UpdateSchools(context.Background(), adminAuth(), []campus.UpdateSchoolInput{
			{ID: north.ID, Shortcode: ptr("N1")},
		})
		require.NoError(t, err)
	})

	t.Run("rejects malformed and taken shortcodes", func(t *testing.T) {
		store := newMemStore(org, north, south)
		_, err := newTestService(store).UpdateSchools(context.Background(), adminAuth(), []campus.UpdateSchoolInput{
			{ID: north.ID, Shortcode: ptr("ab-c")},
			{ID: south.ID, Shortcode: ptr("N1")},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 2)
		assert.Equal(t, campus.ErrCodeInvalidFormat, errs[0].Code)
		assert.Equal(t, "shortCode", errs[0].Attribute)
		assert.Equal(t, campus.ErrCodeExistentChild, errs[1].Code)
		assert.Empty(t, store.writeLog())
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		store := newMemStore(org, north, south)
		_, err := newTestService(store).UpdateSchools(context.Background(), adminAuth(), []campus.UpdateSchoolInput{
			{ID: north.ID, Name: ptr("   ")},
			{ID: south.ID, Name: ptr("South Campus")},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, 0, *errs[0].Index)
		assert.Equal(t, campus.ErrCodeInvalidFormat, errs[0].Code)
		assert.Empty(t, store.writeLog())
		assert.Equal(t, "North", memLoad[campus.School](store, north.ID).Name)
	})

	t.Run("checks edit permission on the owning organization", func(t *testing.T) {
		store := newMemStore(org, north)
		auth := scopedAuth()
		_, err := newTestService(store).UpdateSchools(context.Background(), auth, []campus.UpdateSchoolInput{
			{ID: north.ID, Name: ptr("Elsewhere")},
		})
		require.True(t, campus.IsPermissionError(err))
		assert.Equal(t, campus.PermissionEditSchool, auth.checks[0].permission)
	})
}

func TestDeleteSchools(t *testing.T) {
	org := newOrg("Org")
	north := newSchool(org, "North", "N1")
	store := newMemStore(org, north)
	auth := scopedAuth().grant(campus.PermissionDeleteSchool, org.ID)

	out, err := newTestService(store).DeleteSchools(context.Background(), auth, deleteInputs(north.ID))

	require.NoError(t, err)
	assert.Equal(t, campus.StatusInactive, out[0].Status)
	assert.Equal(t, campus.StatusInactive, memLoad[campus.School](store, north.ID).Status)
	assert.Equal(t, []string{"UpdateWhereIDIn"}, store.writeLog())
}
