package echoapi

import (
	"context"
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core/auth"
	"github.com/iesahq/portal/core/session"
	backendsvc "github.com/iesahq/portal/services/backend"
)

const (
	// HeaderSessionID lets a caller pin a request to a session explicitly ("time travel").
	HeaderSessionID = "X-Session-ID"

	accessTokenCookie    = "accessToken"
	ctxSessionManagerKey = "sessionManager"
	ctxPermsLoadedKey    = "permissionsLoaded"
)

// PrefStoreProvider returns the preference store backing a request's session selection.
type PrefStoreProvider interface {
	StoreFor(ctx echo.Context, userID string) session.Store
}

type PrefStoreProviderFunc func(ctx echo.Context, userID string) session.Store

func (f PrefStoreProviderFunc) StoreFor(ctx echo.Context, userID string) session.Store {
	return f(ctx, userID)
}

// backendContext returns the request context carrying the caller's bearer token
// for forwarding on backend calls.
func backendContext(ctx echo.Context) context.Context {
	return backendsvc.NewContext(ctx.Request().Context(), rawBearerToken(ctx))
}

// pageAuthMiddleware authenticates page routes leniently: a missing or invalid
// token leaves the request anonymous so the gate can redirect to sign-in
// instead of returning a bare 401.
func (s *server) pageAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw := rawBearerToken(ctx)
			if raw == "" {
				if cookie, err := ctx.Cookie(accessTokenCookie); err == nil {
					raw = cookie.Value
				}
			}
			if raw != "" {
				token, err := jwt.ParseWithClaims(raw, new(Claims), func(t *jwt.Token) (interface{}, error) {
					return []byte(s.deps.Conf.SecretKey), nil
				})
				if err == nil && token.Valid {
					ctx.Set(ctxTokenKey, token)
				}
			}
			return next(ctx)
		}
	}
}

type gateOptions struct {
	page bool
}

type gateOption func(*gateOptions)

// asPage makes gate failures redirect (sign-in or role landing page) instead
// of returning JSON errors.
func asPage() gateOption {
	return func(o *gateOptions) { o.page = true }
}

// gateMiddleware protects a route behind the given gate. The permission set is
// loaded before any decision is made, so a slow fetch can never cause a
// redirect flash with stale data; a failed fetch fails the request instead of
// guessing.
func (s *server) gateMiddleware(gate auth.Gate, opts ...gateOption) echo.MiddlewareFunc {
	if err := gate.Validate(); err != nil {
		panic(errors.Wrap(err, "registering gated route"))
	}
	var o gateOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr := contextIdentity(ctx)
			if usr == nil {
				if o.page {
					return ctx.Redirect(http.StatusSeeOther, auth.SignInPath)
				}
				return errUnauthorized
			}

			if err := s.loadPermissions(ctx, usr); err != nil {
				return errors.Wrap(err, "loading permissions")
			}

			if decision := gate.Check(usr); !decision.Allowed() {
				if o.page {
					return ctx.Redirect(http.StatusSeeOther, auth.LandingPath(usr))
				}
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// sessionManager returns the request's session scope manager, initializing it
// on first use. One manager per request; the preference store carries the
// selection across requests.
func (s *server) sessionManager(ctx echo.Context) (*session.Manager, error) {
	if mgr, ok := ctx.Get(ctxSessionManagerKey).(*session.Manager); ok {
		return mgr, nil
	}
	usr := contextIdentity(ctx)
	if usr == nil {
		return nil, errUnauthorized
	}
	mgr := session.NewManager(s.deps.Backend, s.deps.Prefs.StoreFor(ctx, usr.ID), s.deps.Logger)
	mgr.Init(backendContext(ctx), usr.ID)
	ctx.Set(ctxSessionManagerKey, mgr)
	return mgr, nil
}

// scopeSessionID resolves the session every data read on this request is
// scoped to: the X-Session-ID header if present (validated against the
// backend), else the caller's resolved scope session.
func (s *server) scopeSessionID(ctx echo.Context) (string, error) {
	if id := ctx.Request().Header.Get(HeaderSessionID); id != "" {
		if _, err := s.deps.Backend.GetSession(backendContext(ctx), id); err != nil {
			if errors.Cause(err) == backendsvc.ErrNotFound {
				return "", echo.NewHTTPError(http.StatusNotFound, "session not found")
			}
			return "", errors.Wrap(err, "validating session header")
		}
		return id, nil
	}

	mgr, err := s.sessionManager(ctx)
	if err != nil {
		return "", err
	}
	if cur := mgr.Current(); cur != nil {
		return cur.ID, nil
	}
	return "", echo.NewHTTPError(http.StatusNotFound, "no active session found")
}

// loadPermissions fetches the caller's permission set for the scope session,
// once per request.
func (s *server) loadPermissions(ctx echo.Context, usr *auth.Identity) error {
	if loaded, ok := ctx.Get(ctxPermsLoadedKey).(bool); ok && loaded {
		return nil
	}

	// best-effort scope: an unresolved session falls back to the backend's active one
	var scopeID string
	if mgr, err := s.sessionManager(ctx); err == nil {
		if cur := mgr.Current(); cur != nil {
			scopeID = cur.ID
		}
	}

	perms, err := s.deps.Backend.Permissions(backendContext(ctx), scopeID)
	if err != nil {
		return errors.Wrap(err, "fetching permission set")
	}
	usr.Permissions = perms
	ctx.Set(ctxPermsLoadedKey, true)
	return nil
}
