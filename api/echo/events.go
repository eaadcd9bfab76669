package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
)

type eventApi struct {
	srv *server
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *server) {
	api := eventApi{srv: srv}

	eg := g.Group("/events", jwt)
	eg.GET("", api.list)
	eg.GET("/:id", api.retrieve)
	eg.POST("", api.create, srv.gateMiddleware(auth.Gate{AnyPermission: []string{auth.PermEventCreate, auth.PermEventEdit}}))
	eg.DELETE("/:id", api.destroy, srv.gateMiddleware(auth.Gate{Permission: auth.PermEventDelete}))
	eg.POST("/:id/register", api.register)
	eg.DELETE("/:id/register", api.unregister)
}

func (api *eventApi) list(ctx echo.Context) error {
	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	upcomingOnly, _ := strconv.ParseBool(ctx.QueryParam("upcoming"))

	events, err := api.srv.deps.Backend.ListEvents(backendContext(ctx), scopeID, upcomingOnly)
	if err != nil {
		return errors.Wrap(err, "listing events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	evt, err := api.srv.deps.Backend.GetEvent(backendContext(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *eventApi) create(ctx echo.Context) error {
	var data backendsvc.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	scopeID, err := api.srv.scopeSessionID(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving scope session")
	}
	evt, err := api.srv.deps.Backend.CreateEvent(backendContext(ctx), scopeID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	if err := api.srv.deps.Backend.DeleteEvent(backendContext(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) register(ctx echo.Context) error {
	if err := api.srv.deps.Backend.RegisterForEvent(backendContext(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "registering for event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) unregister(ctx echo.Context) error {
	if err := api.srv.deps.Backend.UnregisterFromEvent(backendContext(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "unregistering from event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
