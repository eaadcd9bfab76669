package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
)

type authApi struct {
	srv *server
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, srv *server) {
	api := authApi{srv: srv}

	ag := g.Group("/auth", jwt)
	ag.GET("/me", api.me)
}

// me returns the caller's identity and scope-session permission set.
// The web client renders its permission gates from this.
func (api *authApi) me(ctx echo.Context) error {
	usr := contextIdentity(ctx)
	if usr == nil {
		return errUnauthorized
	}
	if err := api.srv.loadPermissions(ctx, usr); err != nil {
		return errors.Wrap(err, "loading permissions")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"user":        usr,
		"permissions": usr.Permissions,
		"is_admin":    usr.IsAdmin(),
		"landing":     auth.LandingPath(usr),
	})
}
