package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
	"github.com/iesahq/portal/core/session"
)

type sessionApi struct {
	srv *server
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *server) {
	api := sessionApi{srv: srv}

	sg := g.Group("/sessions", jwt)
	sg.GET("", api.list)
	sg.GET("/current", api.current)
	sg.PUT("/current", api.switchSession)
	sg.POST("/refresh", api.refresh)
	sg.POST("", api.create, srv.gateMiddleware(auth.Gate{Permission: auth.PermSessionCreate}))
	sg.PATCH("/:id", api.update, srv.gateMiddleware(auth.Gate{Permission: auth.PermSessionEdit}))
}

// selection is the session scope as seen by the caller: after resolution
// exactly one of Current or Error is authoritative.
type selection struct {
	Current   *session.Session  `json:"current_session"`
	All       []session.Session `json:"all_sessions,omitempty"`
	IsLoading bool              `json:"is_loading"`
	Error     string            `json:"error,omitempty"`
}

func newSelection(mgr *session.Manager, withAll bool) selection {
	sel := selection{
		Current:   mgr.Current(),
		IsLoading: mgr.Loading(),
		Error:     mgr.Err(),
	}
	if withAll {
		sel.All = mgr.All()
	}
	return sel
}

func (api *sessionApi) list(ctx echo.Context) error {
	mgr, err := api.srv.sessionManager(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session manager")
	}
	return ctx.JSON(http.StatusOK, mgr.All())
}

func (api *sessionApi) current(ctx echo.Context) error {
	mgr, err := api.srv.sessionManager(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session manager")
	}
	return ctx.JSON(http.StatusOK, newSelection(mgr, true))
}

// switchSession repoints the caller's scope session and persists the choice.
// On failure the previous selection is untouched and the error is reported in
// the selection state.
func (api *sessionApi) switchSession(ctx echo.Context) error {
	var data SwitchSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwitchSessionRequest")
	}
	if err := data.Validate(api.srv.deps.Validate); err != nil {
		return err
	}

	mgr, err := api.srv.sessionManager(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session manager")
	}
	mgr.Switch(backendContext(ctx), data.SessionID)

	return ctx.JSON(http.StatusOK, newSelection(mgr, false))
}

// refresh re-fetches the session list after an external session-creation event.
func (api *sessionApi) refresh(ctx echo.Context) error {
	mgr, err := api.srv.sessionManager(ctx)
	if err != nil {
		return errors.Wrap(err, "getting session manager")
	}
	mgr.Refresh(backendContext(ctx))

	return ctx.JSON(http.StatusOK, mgr.All())
}

// create proxies session creation to the backend, then refreshes the list so
// the new session shows up in the caller's selection UI.
func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	sess, err := api.srv.deps.Backend.CreateSession(backendContext(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}

	if mgr, mErr := api.srv.sessionManager(ctx); mErr == nil {
		mgr.Refresh(backendContext(ctx))
	}
	return ctx.JSON(http.StatusCreated, sess)
}

// update proxies a partial session update (semester rollover, activation).
func (api *sessionApi) update(ctx echo.Context) error {
	var data session.UpdateSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}
	if err := api.srv.deps.Validate.Struct(&data); err != nil {
		return err
	}

	sess, err := api.srv.deps.Backend.UpdateSession(backendContext(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}

	if mgr, mErr := api.srv.sessionManager(ctx); mErr == nil {
		mgr.Refresh(backendContext(ctx))
	}
	return ctx.JSON(http.StatusOK, sess)
}
