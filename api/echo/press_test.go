package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
	emailsvc "github.com/iesahq/portal/services/email"
)

func Test_pressApi_list(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	token := app.getToken(t, testStudent)

	t.Run("approved list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/press/articles", token)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "s2", app.backend.lastScope())
	})

	t.Run("review queue denial is a distinct access-denied state", func(t *testing.T) {
		app.backend.forbidPress = true
		defer func() { app.backend.forbidPress = false }()

		req, rec := newAuthRequest(http.MethodGet, "/v1/press/articles?status=pending", token)
		app.server.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "access denied: reviewer permissions required"}),
		}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_pressApi_review(t *testing.T) {
	app := initApp(t, newStubBackend("s2", testSess1, testSess2))
	studentToken := app.getToken(t, testStudent)
	reviewerToken := app.getToken(t, testExco)
	app.backend.grant(reviewerToken, auth.PermPressReview)

	t.Run("requires press:review", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"approve": true})
		req, rec := newAuthRequest(http.MethodPost, "/v1/press/articles/a1/review", studentToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("rejection requires feedback", func(t *testing.T) {
		body := marchallObj(t, echo.Map{"approve": false})
		req, rec := newAuthRequest(http.MethodPost, "/v1/press/articles/a1/review", reviewerToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"feedback":"this field is required"}`, rec.Body.String())
	})

	t.Run("approval notifies the author", func(t *testing.T) {
		emailsvc.SentMessages = emailsvc.SentMessages[:0]

		body := marchallObj(t, echo.Map{"approve": true})
		req, rec := newAuthRequest(http.MethodPost, "/v1/press/articles/a1/review", reviewerToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var art backendsvc.Article
		assert.NoError(t, decodeBody(rec, &art))
		assert.Equal(t, backendsvc.ArticleStatusApproved, art.Status)

		if assert.Len(t, emailsvc.SentMessages, 1) {
			msg := emailsvc.SentMessages[0]
			assert.Equal(t, "jo@test.cd", msg.To[0].Address)
			assert.Contains(t, msg.Subject, "approved")
			assert.Contains(t, msg.TextContent, "Campus news")
		}
	})

	t.Run("rejection carries the feedback", func(t *testing.T) {
		emailsvc.SentMessages = emailsvc.SentMessages[:0]

		body := marchallObj(t, echo.Map{"approve": false, "feedback": "needs sources"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/press/articles/a1/review", reviewerToken, body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var art backendsvc.Article
		assert.NoError(t, decodeBody(rec, &art))
		assert.Equal(t, backendsvc.ArticleStatusRejected, art.Status)
		assert.Equal(t, "needs sources", art.Feedback)

		if assert.Len(t, emailsvc.SentMessages, 1) {
			assert.Contains(t, emailsvc.SentMessages[0].Subject, "rejected")
			assert.Contains(t, emailsvc.SentMessages[0].TextContent, "needs sources")
		}
	})
}
