package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"homelet/internal/config"
	"homelet/internal/documents"
	"homelet/internal/featureflags"
	"homelet/internal/models"
	"homelet/internal/payment"
	"homelet/internal/repository"
	"homelet/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Application{},
	), "migrate sqlite")

	return db
}

// newTestServer builds a Server against in-memory sqlite and a temp upload
// dir. The Prometheus HTTP middleware registers collectors globally, so test
// servers leave promMiddleware nil and SetupRoutes skips the /metrics route.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := setupServerTestDB(t)

	cfg := &config.Config{
		JWTSecret:           "test-secret-test-secret-test-secret",
		Port:                "0",
		Env:                 "test",
		ContractUploadDir:   t.TempDir(),
		ContractMaxUploadMB: 15,
	}

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	docs := documents.NewDiskStore(cfg.ContractUploadDir, contractFilesRoute, cfg.ContractMaxUploadMB)
	charger := payment.NewDevCharger()

	s := &Server{
		config:          cfg,
		db:              db,
		userRepo:        userRepo,
		propertyRepo:    propertyRepo,
		applicationRepo: applicationRepo,
		docs:            docs,
		charger:         charger,
		featureFlags:    featureflags.NewManager(cfg.FeatureFlags),
	}
	s.userService = service.NewUserService(userRepo)
	s.propertyService = service.NewPropertyService(propertyRepo, userRepo)
	s.applicationService = service.NewApplicationService(applicationRepo, propertyRepo, docs, charger)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app, db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "not-a-real-hash",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func authToken(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// doUpload sends a multipart request with a single "file" part plus optional
// extra form fields.
func doUpload(t *testing.T, app *fiber.App, path, token string, content []byte, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// pdfBytes is a minimal payload that passes PDF content sniffing.
func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
}
