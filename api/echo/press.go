package echoapi

import (
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core"
	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
)

type pressApi struct {
	srv *server
}

func registerPressAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *server) {
	api := pressApi{srv: srv}

	pg := g.Group("/press/articles", jwt)
	pg.GET("", api.list)
	pg.GET("/:id", api.retrieve)
	pg.POST("", api.submit)
	pg.POST("/:id/review", api.review, srv.gateMiddleware(auth.Gate{Permission: auth.PermPressReview}))
}

// list returns the scope session's articles. Without a status filter only
// approved articles come back; the review queue (status=pending) is
// permission-gated by the backend and a 403 surfaces as a distinct
// access-denied state, not an empty list.
func (api *pressApi) list(ctx echo.Context) error {
	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	status := core.CleanString(ctx.QueryParam("status"), true)

	articles, err := api.srv.deps.Backend.ListArticles(backendContext(ctx), scopeID, status)
	if err != nil {
		if errors.Cause(err) == backendsvc.ErrForbidden {
			return errAccessDenied
		}
		return errors.Wrap(err, "listing articles")
	}
	return ctx.JSON(http.StatusOK, articles)
}

func (api *pressApi) retrieve(ctx echo.Context) error {
	art, err := api.srv.deps.Backend.GetArticle(backendContext(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching article")
	}
	return ctx.JSON(http.StatusOK, art)
}

func (api *pressApi) submit(ctx echo.Context) error {
	var data backendsvc.NewArticle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewArticle")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	art, err := api.srv.deps.Backend.SubmitArticle(backendContext(ctx), scopeID, data)
	if err != nil {
		return errors.Wrap(err, "submitting article")
	}
	return ctx.JSON(http.StatusCreated, art)
}

// review records an approve/reject decision and notifies the author by email.
func (api *pressApi) review(ctx echo.Context) error {
	var data backendsvc.ArticleReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ArticleReview")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	art, err := api.srv.deps.Backend.ReviewArticle(backendContext(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing article")
	}

	api.notifyAuthor(art)
	return ctx.JSON(http.StatusOK, art)
}

func (api *pressApi) notifyAuthor(art backendsvc.Article) {
	if art.AuthorEmail == "" {
		return
	}
	decision := "approved"
	if art.Status == backendsvc.ArticleStatusRejected {
		decision = "rejected"
	}
	api.srv.deps.MailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: art.AuthorName, Address: art.AuthorEmail}},
		Subject:      "Your article has been " + decision,
		TemplateName: "press-review",
		TemplateData: core.ContextData{
			FrontendBaseURL: api.srv.deps.Conf.FrontendBaseURL,
			Data: struct {
				AuthorName string
				Title      string
				Decision   string
				Feedback   string
				ArticleID  string
			}{art.AuthorName, art.Title, decision, art.Feedback, art.ID},
		},
	})
}
