package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"memberspace/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogModules(t *testing.T, app *fiber.App, token string) []interface{} {
	t.Helper()

	req, err := http.NewRequest("GET", "/api/member/area/catalog", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, decodeJSON(resp.Body, &result))
	if result["modules"] == nil {
		return nil
	}
	return result["modules"].([]interface{})
}

func TestCatalogShowsOnlyGrantedPublishedModules(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	memberID := createMember(t, app, token, projectID, "a@example.com")

	published := createModule(t, app, token, projectID, "Visible", true)
	draft := createModule(t, app, token, projectID, "Hidden Draft", false)

	// Grant the draft by hand: a grant on an unpublished module must not
	// surface it.
	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members/%d/access/%d", projectID, memberID, draft), token, nil)
	require.Equal(t, http.StatusOK, status)

	session := memberToken(t, app, projectID, "a@example.com", "memberpass")

	modules := catalogModules(t, app, session)
	require.Len(t, modules, 1)
	visible := modules[0].(map[string]interface{})
	assert.Equal(t, float64(published), visible["id"])

	// Publishing the draft makes it appear without any new grant.
	status, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/projects/%d/modules/%d", projectID, draft), token, map[string]interface{}{
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, status)

	modules = catalogModules(t, app, session)
	assert.Len(t, modules, 2)
}

func TestCatalogHidesUnpublishedLessons(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")
	moduleID := createModule(t, app, token, projectID, "Module One", true)

	for _, lesson := range []struct {
		title     string
		published bool
	}{
		{"Live lesson", true},
		{"Draft lesson", false},
	} {
		status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/modules/%d/lessons", projectID, moduleID), token, map[string]interface{}{
			"title":        lesson.title,
			"is_published": lesson.published,
		})
		require.Equal(t, http.StatusOK, status)
	}

	createMember(t, app, token, projectID, "a@example.com")
	session := memberToken(t, app, projectID, "a@example.com", "memberpass")

	modules := catalogModules(t, app, session)
	require.Len(t, modules, 1)
	lessons := modules[0].(map[string]interface{})["lessons"].([]interface{})
	require.Len(t, lessons, 1)
	assert.Equal(t, "Live lesson", lessons[0].(map[string]interface{})["title"])
}

// Walks the whole grant lifecycle of one project: publish fans out to the
// existing member, later members inherit the published set, and a member
// of a project with nothing published sees an empty catalog.
func TestAccessFanOutLifecycle(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	memberC := createMember(t, app, token, projectID, "c@example.com")
	sessionC := memberToken(t, app, projectID, "c@example.com", "memberpass")
	assert.Empty(t, catalogModules(t, app, sessionC))

	memberA := createMember(t, app, token, projectID, "a@example.com")
	moduleM1 := createModule(t, app, token, projectID, "M1", false)

	var count int64
	db.Model(&models.ModuleAccess{}).Where("module_id = ?", moduleM1).Count(&count)
	require.Equal(t, int64(0), count)

	// Publish: one grant per existing active member.
	status, _ := doJSON(t, app, "PUT", fmt.Sprintf("/api/projects/%d/modules/%d", projectID, moduleM1), token, map[string]interface{}{
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, status)

	db.Model(&models.ModuleAccess{}).Where("module_id = ? AND member_id = ?", moduleM1, memberA).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&models.ModuleAccess{}).Where("module_id = ? AND member_id = ?", moduleM1, memberC).Count(&count)
	assert.Equal(t, int64(1), count)

	// A member created after the publish inherits the grant on creation.
	memberB := createMember(t, app, token, projectID, "b@example.com")
	db.Model(&models.ModuleAccess{}).Where("module_id = ? AND member_id = ?", moduleM1, memberB).Count(&count)
	assert.Equal(t, int64(1), count)

	sessionB := memberToken(t, app, projectID, "b@example.com", "memberpass")
	modules := catalogModules(t, app, sessionB)
	require.Len(t, modules, 1)
	assert.Equal(t, "M1", modules[0].(map[string]interface{})["title"])
}

func TestLessonProgressToggle(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")
	moduleID := createModule(t, app, token, projectID, "Module One", true)

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/modules/%d/lessons", projectID, moduleID), token, map[string]interface{}{
		"title":        "Lesson",
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, status)
	lessonID := uint(result["lesson"].(map[string]interface{})["ID"].(float64))

	memberID := createMember(t, app, token, projectID, "a@example.com")
	session := memberToken(t, app, projectID, "a@example.com", "memberpass")

	// Completing twice keeps a single row.
	for i := 0; i < 2; i++ {
		status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/member/area/lessons/%d/progress", lessonID), session, map[string]bool{
			"completed": true,
		})
		require.Equal(t, http.StatusOK, status)
	}
	var count int64
	db.Model(&models.LessonProgress{}).Where("member_id = ? AND lesson_id = ?", memberID, lessonID).Count(&count)
	assert.Equal(t, int64(1), count)

	modules := catalogModules(t, app, session)
	lesson := modules[0].(map[string]interface{})["lessons"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, lesson["completed"])

	// Unchecking removes the row entirely.
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/member/area/lessons/%d/progress", lessonID), session, map[string]bool{
		"completed": false,
	})
	require.Equal(t, http.StatusOK, status)
	db.Model(&models.LessonProgress{}).Where("member_id = ? AND lesson_id = ?", memberID, lessonID).Count(&count)
	assert.Equal(t, int64(0), count)

	// Re-completing after an uncheck must insert again.
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/member/area/lessons/%d/progress", lessonID), session, map[string]bool{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, status)
	db.Model(&models.LessonProgress{}).Where("member_id = ? AND lesson_id = ?", memberID, lessonID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProgressRequiresAccess(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	memberID := createMember(t, app, token, projectID, "a@example.com")
	moduleID := createModule(t, app, token, projectID, "Module One", true)

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/modules/%d/lessons", projectID, moduleID), token, map[string]interface{}{
		"title":        "Lesson",
		"is_published": true,
	})
	require.Equal(t, http.StatusOK, status)
	lessonID := uint(result["lesson"].(map[string]interface{})["ID"].(float64))

	// Revoke the grant the publish fan-out created.
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/projects/%d/members/%d/access/%d", projectID, memberID, moduleID), token, nil)
	require.Equal(t, http.StatusOK, status)

	session := memberToken(t, app, projectID, "a@example.com", "memberpass")
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/member/area/lessons/%d/progress", lessonID), session, map[string]bool{
		"completed": true,
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestProfileReadAndUpdate(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")
	createMember(t, app, token, projectID, "a@example.com")
	session := memberToken(t, app, projectID, "a@example.com", "memberpass")

	status, result := doJSON(t, app, "GET", "/api/member/area/profile", session, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@example.com", result["email"])
	assert.Equal(t, float64(0), result["lessons_completed"])

	status, _ = doJSON(t, app, "PUT", "/api/member/area/profile", session, map[string]string{
		"full_name":        "Renamed Member",
		"password":         "newpass123",
		"password_confirm": "different",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, "PUT", "/api/member/area/profile", session, map[string]string{
		"full_name":        "Renamed Member",
		"password":         "newpass123",
		"password_confirm": "newpass123",
	})
	require.Equal(t, http.StatusOK, status)

	// Old password no longer works, the new one does.
	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/member/%d/login", projectID), "", map[string]string{
		"email":    "a@example.com",
		"password": "memberpass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	memberToken(t, app, projectID, "a@example.com", "newpass123")
}
