package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
)

type announcementApi struct {
	srv *server
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *server) {
	api := announcementApi{srv: srv}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.list)
	ag.GET("/:id", api.retrieve)
	ag.POST("", api.create, srv.gateMiddleware(auth.Gate{Permission: auth.PermAnnouncementCreate}))
	ag.POST("/:id/read", api.markRead)
}

func (api *announcementApi) list(ctx echo.Context) error {
	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	pinnedOnly, _ := strconv.ParseBool(ctx.QueryParam("pinned"))

	anns, err := api.srv.deps.Backend.ListAnnouncements(backendContext(ctx), scopeID, pinnedOnly)
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	ann, err := api.srv.deps.Backend.GetAnnouncement(backendContext(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching announcement")
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data backendsvc.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	ann, err := api.srv.deps.Backend.CreateAnnouncement(backendContext(ctx), scopeID, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) markRead(ctx echo.Context) error {
	if err := api.srv.deps.Backend.MarkAnnouncementRead(backendContext(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking announcement read")
	}
	return ctx.NoContent(http.StatusNoContent)
}
