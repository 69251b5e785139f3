package server

import (
	"fmt"
	"net/http"
	"testing"

	"homelet/internal/models"
	"homelet/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestProperty publishes a listing through the API as the given owner.
func createTestProperty(t *testing.T, h *appHarness, ownerToken string) uint {
	t.Helper()
	resp := doJSON(t, h.fiber, http.MethodPost, "/api/properties", ownerToken, map[string]any{
		"title":        "Two bed flat near campus",
		"description":  "Bright second floor flat",
		"address":      "12 Harbour Lane",
		"city":         "Bristol",
		"bedrooms":     2,
		"monthly_rent": 950,
		"deposit":      900,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var property models.Property
	decodeJSON(t, resp, &property)
	require.NotZero(t, property.ID)
	return property.ID
}

// appHarness bundles the pieces every lifecycle test needs.
type appHarness struct {
	server        *Server
	fiber         *fiber.App
	landlordToken string
	tenantToken   string
	landlord      *models.User
	tenant        *models.User
}

func newLifecycleHarness(t *testing.T) *appHarness {
	t.Helper()
	s, app, db := newTestServer(t)
	landlord := createTestUser(t, db, "landlord", models.RoleLandlord)
	tenant := createTestUser(t, db, "tenant", models.RoleTenant)
	return &appHarness{
		server:        s,
		fiber:         app,
		landlord:      landlord,
		tenant:        tenant,
		landlordToken: authToken(t, s, landlord),
		tenantToken:   authToken(t, s, tenant),
	}
}

// submitApplication runs property creation plus tenant submission and
// returns the application ID.
func (h *appHarness) submitApplication(t *testing.T) uint {
	t.Helper()
	propertyID := createTestProperty(t, h, h.landlordToken)

	resp := doJSON(t, h.fiber, http.MethodPost, "/api/applications", h.tenantToken, map[string]any{
		"property_id": propertyID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var app models.Application
	decodeJSON(t, resp, &app)
	require.Equal(t, models.ApplicationStatusPending, app.Status)
	require.Equal(t, models.StageApplication, app.Stage)
	return app.ID
}

func TestApplicationLifecycleFlow(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	appID := h.submitApplication(t)
	base := fmt.Sprintf("/api/applications/%d", appID)

	// Landlord accepts
	resp := doJSON(t, h.fiber, http.MethodPost, base+"/respond", h.landlordToken, map[string]any{
		"decision": "accept",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record models.Application
	decodeJSON(t, resp, &record)
	assert.Equal(t, models.ApplicationStatusAccepted, record.Status)
	assert.Equal(t, models.StageProcessing, record.Stage)

	// Landlord uploads the contract
	resp = doUpload(t, h.fiber, base+"/contract", h.landlordToken, pdfBytes(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &record)
	assert.NotEmpty(t, record.ContractURL)
	assert.Equal(t, models.ContractStatusUploaded, record.ContractStatus)

	// Tenant signs
	resp = doUpload(t, h.fiber, base+"/signature", h.tenantToken, pdfBytes(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &record)
	assert.True(t, record.ContractSignedTenant)
	assert.Equal(t, models.ContractStatusSignedByTenant, record.ContractStatus)

	// Landlord signs
	resp = doUpload(t, h.fiber, base+"/signature", h.landlordToken, pdfBytes(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &record)
	assert.True(t, record.ContractSignedLandlord)
	assert.Equal(t, models.ContractStatusCompleted, record.ContractStatus)
	assert.Equal(t, models.StageProcessing, record.Stage)

	// Tenant pays the deposit; completion conditions now all hold so the
	// stage advances without a separate finalize call.
	resp = doJSON(t, h.fiber, http.MethodPost, base+"/payment", h.tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &record)
	assert.Equal(t, models.PaymentStatusPaid, record.PaymentStatus)
	assert.Equal(t, models.StageCompleted, record.Stage)

	// Timeline shows the full chain as completed
	resp = doJSON(t, h.fiber, http.MethodGet, base+"/timeline", h.tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var timeline struct {
		Timeline []workflow.Event `json:"timeline"`
	}
	decodeJSON(t, resp, &timeline)
	require.Len(t, timeline.Timeline, 7)
	for _, event := range timeline.Timeline {
		assert.Equal(t, workflow.EventCompleted, event.Status, event.Title)
	}

	// Nothing is actionable on a completed record
	resp = doJSON(t, h.fiber, http.MethodGet, base+"/surface", h.tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var surface workflow.Surface
	decodeJSON(t, resp, &surface)
	assert.False(t, surface.CanPay)
	assert.False(t, surface.CanSignTenant)
	assert.False(t, surface.CanFinalize)
}

func TestApplicationRejectionFreezes(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	appID := h.submitApplication(t)
	base := fmt.Sprintf("/api/applications/%d", appID)

	// Reject requires feedback
	resp := doJSON(t, h.fiber, http.MethodPost, base+"/respond", h.landlordToken, map[string]any{
		"decision": "reject",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, h.fiber, http.MethodPost, base+"/respond", h.landlordToken, map[string]any{
		"decision": "reject",
		"feedback": "Income requirements not met",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record models.Application
	decodeJSON(t, resp, &record)
	assert.Equal(t, models.ApplicationStatusRejected, record.Status)

	// Frozen: contract upload now reads as an invalid transition
	resp = doUpload(t, h.fiber, base+"/contract", h.landlordToken, pdfBytes(), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp models.ErrorResponse
	decodeJSON(t, resp, &errResp)
	assert.Equal(t, models.CodeInvalidTransition, errResp.Code)

	// Timeline truncates to the rejection
	resp = doJSON(t, h.fiber, http.MethodGet, base+"/timeline", h.tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var timeline struct {
		Timeline []workflow.Event `json:"timeline"`
	}
	decodeJSON(t, resp, &timeline)
	require.Len(t, timeline.Timeline, 2)
	assert.Contains(t, timeline.Timeline[1].Description, "Income requirements not met")
}

func TestApplicationActionGates(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	appID := h.submitApplication(t)
	base := fmt.Sprintf("/api/applications/%d", appID)

	// Tenant cannot decide their own application
	resp := doJSON(t, h.fiber, http.MethodPost, base+"/respond", h.tenantToken, map[string]any{
		"decision": "accept",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Payment before acceptance and signatures is rejected
	resp = doJSON(t, h.fiber, http.MethodPost, base+"/payment", h.tenantToken, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var errResp models.ErrorResponse
	decodeJSON(t, resp, &errResp)
	assert.Equal(t, models.CodePreconditionFailed, errResp.Code)

	// Contract upload before acceptance is rejected and stores nothing
	resp = doUpload(t, h.fiber, base+"/contract", h.landlordToken, pdfBytes(), nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var record models.Application
	require.NoError(t, h.server.db.First(&record, appID).Error)
	assert.Empty(t, record.ContractURL)
}

func TestApplicationVisibilityRestrictedToParties(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	appID := h.submitApplication(t)
	base := fmt.Sprintf("/api/applications/%d", appID)

	stranger := createTestUser(t, h.server.db, "stranger", models.RoleTenant)
	strangerToken := authToken(t, h.server, stranger)

	for _, path := range []string{base, base + "/timeline", base + "/surface"} {
		resp := doJSON(t, h.fiber, http.MethodGet, path, strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	// No token at all
	resp := doJSON(t, h.fiber, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplicationUploadRejectsNonPDF(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	appID := h.submitApplication(t)
	base := fmt.Sprintf("/api/applications/%d", appID)

	resp := doJSON(t, h.fiber, http.MethodPost, base+"/respond", h.landlordToken, map[string]any{
		"decision": "accept",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doUpload(t, h.fiber, base+"/contract", h.landlordToken, []byte("plain text, not a contract"), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp models.ErrorResponse
	decodeJSON(t, resp, &errResp)
	assert.Equal(t, models.CodeValidation, errResp.Code)
}

func TestApplicationDuplicateSubmissionBlocked(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	propertyID := createTestProperty(t, h, h.landlordToken)

	resp := doJSON(t, h.fiber, http.MethodPost, "/api/applications", h.tenantToken, map[string]any{
		"property_id": propertyID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, h.fiber, http.MethodPost, "/api/applications", h.tenantToken, map[string]any{
		"property_id": propertyID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplicationListsPerRole(t *testing.T) {
	t.Parallel()
	h := newLifecycleHarness(t)
	h.submitApplication(t)

	var listing struct {
		Applications []models.Application `json:"applications"`
	}

	resp := doJSON(t, h.fiber, http.MethodGet, "/api/applications", h.tenantToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Applications, 1)
	assert.Equal(t, h.tenant.ID, listing.Applications[0].ApplicantID)

	resp = doJSON(t, h.fiber, http.MethodGet, "/api/applications", h.landlordToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Applications, 1)
	assert.Equal(t, h.landlord.ID, listing.Applications[0].OwnerID)
}
