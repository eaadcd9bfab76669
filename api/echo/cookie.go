package echoapi

import (
	"context"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core"
	"github.com/iesahq/portal/core/session"
)

const prefsCookieName = "portalPrefs"

// cookiePrefStores keeps preferences client-side in a tamper-proof cookie,
// mirroring the web client's local storage. The alternative to the
// database-backed store when the portal runs without one.
type cookiePrefStores struct {
	sc *securecookie.SecureCookie
}

var _ PrefStoreProvider = (*cookiePrefStores)(nil)

func NewCookiePrefStores(conf *core.Config) PrefStoreProvider {
	return &cookiePrefStores{
		sc: securecookie.New([]byte(conf.SecretKey), nil),
	}
}

func (p *cookiePrefStores) StoreFor(ctx echo.Context, userID string) session.Store {
	return &cookiePrefStore{sc: p.sc, ctx: ctx, userID: userID}
}

type cookiePrefStore struct {
	sc     *securecookie.SecureCookie
	ctx    echo.Context
	userID string
}

var _ session.Store = (*cookiePrefStore)(nil)

func (s *cookiePrefStore) read() map[string]string {
	prefs := make(map[string]string)
	cookie, err := s.ctx.Cookie(prefsCookieName)
	if err != nil {
		return prefs
	}
	// a cookie that fails decoding is treated as absent
	_ = s.sc.Decode(prefsCookieName, cookie.Value, &prefs)
	return prefs
}

func (s *cookiePrefStore) Get(_ context.Context, key string) (string, bool) {
	value, ok := s.read()[s.userID+":"+key]
	return value, ok
}

func (s *cookiePrefStore) Set(_ context.Context, key, value string) error {
	prefs := s.read()
	prefs[s.userID+":"+key] = value

	encoded, err := s.sc.Encode(prefsCookieName, prefs)
	if err != nil {
		return errors.Wrap(err, "encoding prefs cookie")
	}
	s.ctx.SetCookie(&http.Cookie{
		Name:     prefsCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
