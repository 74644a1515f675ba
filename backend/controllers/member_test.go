package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"memberspace/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateMemberEmailRejected(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	createMember(t, app, token, projectID, "a@example.com")

	status, result := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members", projectID), token, map[string]string{
		"email":     "a@example.com",
		"full_name": "Duplicate",
		"password":  "otherpass",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, result["error"])

	var count int64
	db.Model(&models.Member{}).Where("project_id = ? AND email = ?", projectID, "a@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSameEmailAllowedAcrossProjects(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectA := createProject(t, app, token, "Project A")
	projectB := createProject(t, app, token, "Project B")

	createMember(t, app, token, projectA, "a@example.com")
	createMember(t, app, token, projectB, "a@example.com")
}

func TestCreateMemberGrantsPublishedModules(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	published := createModule(t, app, token, projectID, "Published", true)
	draft := createModule(t, app, token, projectID, "Draft", false)

	memberID := createMember(t, app, token, projectID, "a@example.com")

	var grants []models.ModuleAccess
	db.Where("member_id = ?", memberID).Find(&grants)
	require.Len(t, grants, 1)
	assert.Equal(t, published, grants[0].ModuleID)
	_ = draft
}

func TestMemberEmailReusableAfterDelete(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	memberID := createMember(t, app, token, projectID, "a@example.com")
	status, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/api/projects/%d/members/%d", projectID, memberID), token, nil)
	require.Equal(t, http.StatusOK, status)

	createMember(t, app, token, projectID, "a@example.com")
}

func TestMemberRequiresPasswordUnlessGuest(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members", projectID), token, map[string]string{
		"email":     "a@example.com",
		"full_name": "No Password",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members", projectID), token, map[string]string{
		"email":     "guest@example.com",
		"full_name": "Guest",
		"role":      models.RoleGuest,
		"password":  "forbidden",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListMembersExcludesGuests(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	createMember(t, app, token, projectID, "a@example.com")
	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members", projectID), token, map[string]string{
		"email":     "guest@example.com",
		"full_name": "Guest",
		"role":      models.RoleGuest,
	})
	require.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest("GET", fmt.Sprintf("/api/projects/%d/members", projectID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var members []models.Member
	require.NoError(t, decodeJSON(resp.Body, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "a@example.com", members[0].Email)
}

func TestManualAccessEndpoints(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	memberID := createMember(t, app, token, projectID, "a@example.com")
	draftA := createModule(t, app, token, projectID, "Draft A", false)
	draftB := createModule(t, app, token, projectID, "Draft B", false)

	// Single grant, repeated: still one row.
	for i := 0; i < 2; i++ {
		status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members/%d/access/%d", projectID, memberID, draftA), token, nil)
		require.Equal(t, http.StatusOK, status)
	}
	var count int64
	db.Model(&models.ModuleAccess{}).Where("member_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(1), count)

	// Grant all covers drafts too.
	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members/%d/access", projectID, memberID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, result := doJSON(t, app, "GET", fmt.Sprintf("/api/projects/%d/members/%d/access", projectID, memberID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, result["module_ids"], 2)

	// Revoke one, then the rest.
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/projects/%d/members/%d/access/%d", projectID, memberID, draftB), token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/projects/%d/members/%d/access", projectID, memberID), token, nil)
	require.Equal(t, http.StatusOK, status)

	db.Model(&models.ModuleAccess{}).Where("member_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGrantAccessRejectsForeignModule(t *testing.T) {
	app, _ := setupApp(t)
	token := ownerToken(t, app)
	projectA := createProject(t, app, token, "Project A")
	projectB := createProject(t, app, token, "Project B")

	memberID := createMember(t, app, token, projectA, "a@example.com")
	foreignModule := createModule(t, app, token, projectB, "Foreign", false)

	status, _ := doJSON(t, app, "POST", fmt.Sprintf("/api/projects/%d/members/%d/access/%d", projectA, memberID, foreignModule), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteMemberCascades(t *testing.T) {
	app, db := setupApp(t)
	token := ownerToken(t, app)
	projectID := createProject(t, app, token, "Course Area")

	moduleID := createModule(t, app, token, projectID, "Module One", true)
	memberID := createMember(t, app, token, projectID, "a@example.com")

	require.NoError(t, db.Create(&models.LessonProgress{MemberID: memberID, LessonID: 1, Completed: true}).Error)
	post := models.CommunityPost{ModuleID: moduleID, AuthorID: memberID, Title: "Hello", Content: "First post"}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.CommunityComment{PostID: post.ID, AuthorID: memberID, Content: "Reply"}).Error)

	status, _ := doJSON(t, app, "DELETE", fmt.Sprintf("/api/projects/%d/members/%d", projectID, memberID), token, nil)
	require.Equal(t, http.StatusOK, status)

	var count int64
	db.Model(&models.ModuleAccess{}).Where("member_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.LessonProgress{}).Where("member_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.CommunityPost{}).Where("author_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&models.CommunityComment{}).Where("author_id = ?", memberID).Count(&count)
	assert.Equal(t, int64(0), count)
}
