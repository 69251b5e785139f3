package server

import (
	"fmt"
	"net/http"
	"testing"

	"homelet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePropertyRequiresLandlordRole(t *testing.T) {
	t.Parallel()
	s, app, db := newTestServer(t)
	tenant := createTestUser(t, db, "tenant", models.RoleTenant)

	resp := doJSON(t, app, http.MethodPost, "/api/properties", authToken(t, s, tenant), map[string]any{
		"title":        "Studio",
		"address":      "1 Short St",
		"city":         "Leeds",
		"bedrooms":     1,
		"monthly_rent": 600,
		"deposit":      600,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBrowseOnlyShowsPublishedListings(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	propertyID := createTestProperty(t, h, h.landlordToken)

	var listing struct {
		Properties []models.Property `json:"properties"`
	}

	// Browsing is public
	resp := doJSON(t, h.fiber, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Properties, 1)

	// Unpublish hides it from browse but not from the owner's own list
	resp = doJSON(t, h.fiber, http.MethodPost,
		fmt.Sprintf("/api/properties/%d/unpublish", propertyID), h.landlordToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, h.fiber, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	assert.Empty(t, listing.Properties)

	resp = doJSON(t, h.fiber, http.MethodGet, "/api/properties/mine", h.landlordToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	assert.Len(t, listing.Properties, 1)

	// Only the owner can toggle visibility
	resp = doJSON(t, h.fiber, http.MethodPost,
		fmt.Sprintf("/api/properties/%d/publish", propertyID), h.tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBrowseFilters(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	createTestProperty(t, h, h.landlordToken) // Bristol, 2 bedrooms

	var listing struct {
		Properties []models.Property `json:"properties"`
	}

	resp := doJSON(t, h.fiber, http.MethodGet, "/api/properties?city=Bristol&min_bedrooms=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	assert.Len(t, listing.Properties, 1)

	resp = doJSON(t, h.fiber, http.MethodGet, "/api/properties?min_bedrooms=4", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	assert.Empty(t, listing.Properties)
}

func TestGetPropertyNotFound(t *testing.T) {
	t.Parallel()
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/properties/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/properties/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateMyProfile(t *testing.T) {
	t.Parallel()
	s, app, db := newTestServer(t)
	user := createTestUser(t, db, "profile", models.RoleTenant)
	token := authToken(t, s, user)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", token, map[string]any{
		"name":  "New Name",
		"phone": "+44 20 7946 0958",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.User
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "+44 20 7946 0958", updated.Phone)

	resp = doJSON(t, app, http.MethodPut, "/api/users/me", token, map[string]any{
		"phone": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
