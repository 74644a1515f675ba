package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"memberspace/backend/config"
	"memberspace/backend/routes"
	"memberspace/backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// appEnv bundles the pieces fixtures hand back to tests.
type appEnv struct {
	App        *fiber.App
	DB         *gorm.DB
	OwnerToken string
	ProjectID  uint
}

// setupApp builds a full application over a private in-memory database.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{JWTSecret: "testsecret", ServerPort: "8080"}

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, nil)

	return app, db
}

// doJSON performs a request with an optional auth token and decodes the
// JSON body into a generic map.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

// decodeJSON decodes a response body into a typed value for the few
// endpoints that return a bare array.
func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// ownerToken registers a fresh owner account and returns its JWT.
func ownerToken(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, result := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":     uuid.NewString() + "@example.com",
		"password":  "password123",
		"full_name": "Test Owner",
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, result["token"])

	return result["token"].(string)
}

func createProject(t *testing.T, app *fiber.App, token, name string) uint {
	t.Helper()

	status, result := doJSON(t, app, "POST", "/api/projects", token, map[string]string{
		"name": name,
	})
	require.Equal(t, http.StatusOK, status)

	project := result["project"].(map[string]interface{})
	return uint(project["ID"].(float64))
}

func createModule(t *testing.T, app *fiber.App, token string, projectID uint, title string, published bool) uint {
	t.Helper()

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/modules", projectID), token, map[string]interface{}{
		"title":        title,
		"is_published": published,
	})
	require.Equal(t, http.StatusOK, status)

	module := result["module"].(map[string]interface{})
	return uint(module["ID"].(float64))
}

func createMember(t *testing.T, app *fiber.App, token string, projectID uint, email string) uint {
	t.Helper()

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members", projectID), token, map[string]string{
		"email":     email,
		"full_name": "Member " + email,
		"password":  "memberpass",
	})
	require.Equal(t, http.StatusOK, status)

	member := result["member"].(map[string]interface{})
	return uint(member["ID"].(float64))
}

// memberToken logs a member in and returns the session JWT.
func memberToken(t *testing.T, app *fiber.App, projectID uint, email, password string) string {
	t.Helper()

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/member/%d/login", projectID), "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, result["token"])

	return result["token"].(string)
}
