package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iesahq/portal/core"
	"github.com/iesahq/portal/core/auth"
	"github.com/iesahq/portal/core/session"
	backendsvc "github.com/iesahq/portal/services/backend"
	emailsvc "github.com/iesahq/portal/services/email"
	"github.com/iesahq/portal/storage/inmem"
	testutil "github.com/iesahq/portal/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// stubBackend fakes the remote IESA backend. Permissions are registered per
// bearer token; sessions are shared.
type stubBackend struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	activeID string
	perms    map[string][]string // token -> permissions

	// last scope the stub saw on a data read
	lastSessionQuery string
	forbidPress      bool
}

func newStubBackend(active string, sessions ...session.Session) *stubBackend {
	stub := &stubBackend{
		sessions: make(map[string]session.Session),
		activeID: active,
		perms:    make(map[string][]string),
	}
	for _, sess := range sessions {
		stub.sessions[sess.ID] = sess
	}
	return stub
}

func (b *stubBackend) grant(token string, perms ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perms[token] = perms
}

func (b *stubBackend) lastScope() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSessionQuery
}

func (b *stubBackend) token(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (b *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeJSON := func(code int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}

	path := r.URL.Path
	switch {
	case path == "/sessions" && r.Method == http.MethodGet:
		all := make([]session.Session, 0, len(b.sessions))
		for _, sess := range b.sessions {
			all = append(all, sess)
		}
		writeJSON(http.StatusOK, all)

	case path == "/sessions" && r.Method == http.MethodPost:
		var ns session.NewSession
		_ = json.NewDecoder(r.Body).Decode(&ns)
		sess := session.Session{ID: "new", Name: ns.Name, IsActive: ns.IsActive}
		b.sessions[sess.ID] = sess
		writeJSON(http.StatusCreated, sess)

	case path == "/sessions/active":
		if sess, ok := b.sessions[b.activeID]; ok {
			writeJSON(http.StatusOK, sess)
			return
		}
		writeJSON(http.StatusNotFound, echo.Map{"detail": "no active session"})

	case strings.HasPrefix(path, "/sessions/"):
		id := strings.TrimPrefix(path, "/sessions/")
		sess, ok := b.sessions[id]
		if !ok {
			writeJSON(http.StatusNotFound, echo.Map{"detail": "session not found"})
			return
		}
		if r.Method == http.MethodPatch {
			var us session.UpdateSession
			_ = json.NewDecoder(r.Body).Decode(&us)
			if us.Name != nil {
				sess.Name = *us.Name
			}
			if us.CurrentSemester != nil {
				sess.CurrentSemester = *us.CurrentSemester
			}
			if us.IsActive != nil {
				sess.IsActive = *us.IsActive
			}
			b.sessions[id] = sess
		}
		writeJSON(http.StatusOK, sess)

	case path == "/api/users/me/permissions":
		perms := b.perms[b.token(r)]
		if perms == nil {
			perms = []string{}
		}
		writeJSON(http.StatusOK, perms)

	case path == "/api/v1/announcements":
		b.lastSessionQuery = r.URL.Query().Get("sessionId")
		writeJSON(http.StatusOK, []backendsvc.Announcement{})

	case path == "/api/v1/press/articles" && r.Method == http.MethodGet:
		b.lastSessionQuery = r.URL.Query().Get("sessionId")
		if b.forbidPress {
			writeJSON(http.StatusForbidden, echo.Map{"detail": "reviewer permissions required"})
			return
		}
		writeJSON(http.StatusOK, []backendsvc.Article{})

	case strings.HasSuffix(path, "/review") && r.Method == http.MethodPost:
		var review backendsvc.ArticleReview
		_ = json.NewDecoder(r.Body).Decode(&review)
		status := backendsvc.ArticleStatusApproved
		if !review.Approve {
			status = backendsvc.ArticleStatusRejected
		}
		writeJSON(http.StatusOK, backendsvc.Article{
			ID: "a1", Title: "Campus news", Status: status, Feedback: review.Feedback,
			AuthorName: "Jo Student", AuthorEmail: "jo@test.cd",
		})

	default:
		writeJSON(http.StatusNotFound, echo.Map{"detail": "not found"})
	}
}

type testApp struct {
	server  Server
	conf    *core.Config
	backend *stubBackend
	prefs   map[string]*inmem.PrefStore
}

// prefStore returns (creating if needed) the user's preference store.
func (a *testApp) prefStore(userID string) *inmem.PrefStore {
	if store, ok := a.prefs[userID]; ok {
		return store
	}
	store := inmem.NewPrefStore()
	a.prefs[userID] = store
	return store
}

func initApp(t *testing.T, backend *stubBackend) *testApp {
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	conf := testutil.NewConfig()
	conf.Backend.BaseURL = backendSrv.URL

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	app := &testApp{
		conf:    conf,
		backend: backend,
		prefs:   make(map[string]*inmem.PrefStore),
	}
	app.server = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testutil.NewLogger(),
		Backend:    backendsvc.NewClient(conf, testutil.NewLogger()),
		MailSvc:    emailsvc.NewConsoleServiceMock(conf),
		Prefs: PrefStoreProviderFunc(func(_ echo.Context, userID string) session.Store {
			return app.prefStore(userID)
		}),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return app
}

func (a *testApp) getToken(t *testing.T, usr auth.Identity) string {
	token, err := GenerateToken(a.conf, usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeBody(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func jsonBytesEqual(b1, b2 []byte) bool {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false
	}
	return assert.ObjectsAreEqual(j1, j2)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	if !jsonBytesEqual(rec.Body.Bytes(), tt.wantData) {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
