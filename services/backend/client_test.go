package backendsvc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
	testutil "github.com/iesahq/portal/tests"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*backendsvc.Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := testutil.NewConfig()
	conf.Backend.BaseURL = srv.URL
	return backendsvc.NewClient(conf, testutil.NewLogger()), srv
}

func Test_Client_headers(t *testing.T) {
	var gotAuth, gotReqID, gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode([]string{})
	})

	ctx := backendsvc.NewContext(context.Background(), "tok123")
	_, err := client.Permissions(ctx, "")
	assert.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, "application/json", gotAccept)
}

func Test_Client_noTokenNoAuthHeader(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]string{})
	})

	_, err := client.ListSessions(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func Test_Client_errorMapping(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantErr error
		wantStr string
	}{
		{name: "401", code: http.StatusUnauthorized, wantErr: backendsvc.ErrUnauthorized},
		{name: "403", code: http.StatusForbidden, wantErr: backendsvc.ErrForbidden},
		{name: "404", code: http.StatusNotFound, wantErr: backendsvc.ErrNotFound},
		{name: "detail payload", code: http.StatusBadRequest, body: `{"detail":"name already taken"}`, wantStr: "name already taken"},
		{name: "error payload", code: http.StatusBadRequest, body: `{"error":"bad input"}`, wantStr: "bad input"},
		{name: "opaque 500", code: http.StatusInternalServerError, wantStr: "500 Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			_, err := client.GetSession(context.Background(), "s1")
			if assert.Error(t, err) {
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, errors.Cause(err))
				} else {
					assert.Contains(t, err.Error(), tt.wantStr)
				}
			}
		})
	}
}

func Test_Client_sessions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sessions":
			_, _ = w.Write([]byte(`[{"id":"s1","name":"2023/2024"},{"id":"s2","name":"2024/2025","is_active":true}]`))
		case "/sessions/active":
			_, _ = w.Write([]byte(`{"id":"s2","name":"2024/2025","is_active":true,"current_semester":1}`))
		case "/sessions/s1":
			_, _ = w.Write([]byte(`{"id":"s1","name":"2023/2024"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	all, err := client.ListSessions(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := client.ActiveSession(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "s2", active.ID)
	assert.True(t, active.IsActive)
	assert.Equal(t, 1, active.CurrentSemester)

	sess, err := client.GetSession(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, "2023/2024", sess.Name)

	_, err = client.GetSession(ctx, "gone")
	assert.Equal(t, backendsvc.ErrNotFound, errors.Cause(err))
}

func Test_Client_permissions(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me/permissions", r.URL.Path)
		gotQuery = r.URL.Query().Get("sessionId")
		_, _ = w.Write([]byte(`["event:create","press:review"]`))
	})

	perms, err := client.Permissions(context.Background(), "s2")
	assert.NoError(t, err)
	assert.Equal(t, "s2", gotQuery)
	assert.Equal(t, auth.NewPermissionSet(auth.PermEventCreate, auth.PermPressReview), perms)
	assert.True(t, perms.Has(auth.PermPressReview))
}
