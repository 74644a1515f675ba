package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandingRoundTrip(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	// First read materializes the defaults.
	status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/projects/%d/branding", projectID), token, nil)
	require.Equal(t, http.StatusOK, status)
	branding := result["branding"].(map[string]interface{})
	assert.Equal(t, "#D4AF37", branding["primary_color"])

	status, result = doJSON(t, app, "PUT", fmt.Sprintf("/api/projects/%d/branding", projectID), token, map[string]interface{}{
		"primary_color": "#112233",
		"dark_mode":     true,
	})
	require.Equal(t, http.StatusOK, status)
	branding = result["branding"].(map[string]interface{})
	assert.Equal(t, "#112233", branding["primary_color"])
	assert.Equal(t, true, branding["dark_mode"])
	// Untouched fields keep their values.
	assert.Equal(t, "#FFD700", branding["secondary_color"])

	status, result = doJSON(t, app, "PUT", fmt.Sprintf("/api/projects/%d/branding", projectID), token, map[string]interface{}{
		"accent_color": "not-a-color",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, result["error"])

	status, result = doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/branding/reset", projectID), token, nil)
	require.Equal(t, http.StatusOK, status)
	branding = result["branding"].(map[string]interface{})
	assert.Equal(t, "#D4AF37", branding["primary_color"])
	assert.Equal(t, false, branding["dark_mode"])
}

func TestThemeEndpointIsPublic(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	status, _ := doJSON(t, app, "PUT", fmt.Sprintf("/api/projects/%d/branding", projectID), token, map[string]interface{}{
		"primary_color": "#112233",
	})
	require.Equal(t, http.StatusOK, status)

	// No Authorization header: the member login page loads this before a
	// session exists.
	status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/projects/%d/theme", projectID), "", nil)
	require.Equal(t, http.StatusOK, status)

	variables := result["variables"].(map[string]interface{})
	assert.Equal(t, "#112233", variables["--member-primary-color"])
	assert.Equal(t, "#FFD700", variables["--member-secondary-color"])
	assert.Equal(t, false, result["dark_mode"])
}

func TestThemeEndpointUnknownProject(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := doJSON(t, app, "GET", "/api/projects/99999/theme", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
