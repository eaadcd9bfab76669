package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iesahq/portal/core/auth"
	"github.com/iesahq/portal/core/session"
)

func Test_sessionApi_current(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	token := app.getToken(t, testStudent)

	t.Run("resolves the active session", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions/current", token)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var sel selection
		assert.NoError(t, decodeBody(rec, &sel))
		if assert.NotNil(t, sel.Current) {
			assert.Equal(t, "s2", sel.Current.ID)
		}
		assert.Len(t, sel.All, 2)
		assert.False(t, sel.IsLoading)
		assert.Empty(t, sel.Error)
	})

	t.Run("honors the stored selection", func(t *testing.T) {
		store := app.prefStore(testStudent.ID)
		_ = store.Set(context.Background(), session.PrefKeySelectedSession, "s1")

		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions/current", token)
		app.server.ServeHTTP(rec, req)

		var sel selection
		assert.NoError(t, decodeBody(rec, &sel))
		if assert.NotNil(t, sel.Current) {
			assert.Equal(t, "s1", sel.Current.ID)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/sessions/current")
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_sessionApi_switch(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	token := app.getToken(t, testStudent)

	t.Run("switch repoints and persists", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"session_id": "s1"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/sessions/current", token, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var sel selection
		assert.NoError(t, decodeBody(rec, &sel))
		if assert.NotNil(t, sel.Current) {
			assert.Equal(t, "s1", sel.Current.ID)
		}
		assert.Empty(t, sel.Error)

		id, ok := app.prefStore(testStudent.ID).Get(context.Background(), session.PrefKeySelectedSession)
		assert.True(t, ok)
		assert.Equal(t, "s1", id)
	})

	t.Run("failed switch keeps the previous session", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"session_id": "gone"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/sessions/current", token, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var sel selection
		assert.NoError(t, decodeBody(rec, &sel))
		if assert.NotNil(t, sel.Current) {
			assert.Equal(t, "s1", sel.Current.ID) // persisted by the previous test run's switch
		}
		assert.Equal(t, "could not switch session", sel.Error)
	})

	t.Run("missing session_id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/sessions/current", token, marchallObj(t, echo.Map{}))
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"session_id":"this field is required"}`, rec.Body.String())
	})
}

func Test_sessionApi_list(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	token := app.getToken(t, testStudent)

	req, rec := newAuthRequest(http.MethodGet, "/v1/sessions", token)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var all []session.Session
	assert.NoError(t, decodeBody(rec, &all))
	assert.Len(t, all, 2)
}

func Test_sessionApi_create(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	studentToken := app.getToken(t, testStudent)
	adminToken := app.getToken(t, testAdmin)
	app.backend.grant(adminToken, auth.AllPermissions()...)

	body := marchallObj(t, echo.Map{
		"name":       "2025/2026",
		"start_date": "2025-09-01T00:00:00Z",
		"end_date":   "2026-08-31T00:00:00Z",
	})

	t.Run("requires session:create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", studentToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("creates and refreshes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", adminToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var sess session.Session
		assert.NoError(t, decodeBody(rec, &sess))
		assert.Equal(t, "2025/2026", sess.Name)
	})

	t.Run("semester rollover requires session:edit", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"current_semester": 2})

		req, rec := newAuthRequest(http.MethodPatch, "/v1/sessions/s2", studentToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodPatch, "/v1/sessions/s2", adminToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var sess session.Session
		assert.NoError(t, decodeBody(rec, &sess))
		assert.Equal(t, 2, sess.CurrentSemester)
	})

	t.Run("rejects a malformed name", func(t *testing.T) {
		bad := marchallObj(t, echo.Map{
			"name":       "2025-2026",
			"start_date": "2025-09-01T00:00:00Z",
			"end_date":   "2026-08-31T00:00:00Z",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", adminToken, bad)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
