package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence/file"
	"github.com/dukex/editorial/pkg/services"
	"github.com/dukex/editorial/pkg/testutil"
	"github.com/dukex/editorial/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)

	app := NewAPI(logger, services.Dependencies{
		Persistence: store,
		Logger:      logger,
	})

	return app.App(), store
}

func request(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(web.HeaderUserID, "erin")
	req.Header.Set(web.HeaderUserRole, string(models.RoleEditor))

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := request(t, app, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Editorial API", string(body))
}

func TestAPI_LivenessAndReadiness(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := request(t, app, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "OK", string(body), path)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := request(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestAPI_WorkflowAndVersionsShareState(t *testing.T) {
	app, store := setupTestApp(t)

	post := testutil.CreateTestPost()
	require.NoError(t, store.PostRepository().SavePost(t.Context(), post))

	status, _ := request(t, app, http.MethodPost, "/posts/"+post.ID+"/versions", map[string]any{
		"title":   "Second draft",
		"content": "Rewritten body",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := request(t, app, http.MethodPost, "/posts/"+post.ID+"/actions", map[string]any{
		"action": "SUBMIT_FOR_REVIEW",
	})
	require.Equal(t, http.StatusOK, status)

	var result web.ActionResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, models.StateReview, result.NewState)

	stored, err := store.PostRepository().GetPost(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateReview, stored.WorkflowState)
	assert.Equal(t, "Second draft", stored.Title)

	status, body = request(t, app, http.MethodGet, "/posts/"+post.ID+"/history", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"action":"SUBMIT_FOR_REVIEW"`)
}
