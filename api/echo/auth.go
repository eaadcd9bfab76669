package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/iesahq/portal/core"
	"github.com/iesahq/portal/core/auth"
)

const (
	ctxTokenKey    = "userToken"
	ctxIdentityKey = "identity"
	ctxPermsKey    = "permissions"
)

// Claims are the identity-provider claims carried in a bearer token.
// The provider signs with HS256 using the shared secret; the portal only verifies.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type,omitempty"` // must be "access"
}

func (c Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if c.Type != "access" {
		return errors.New("invalid token type")
	}
	return nil
}

// newJWTConfig is the bearer auth middleware config for identity-provider tokens.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    ctxTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken mints a signed access token; only tests and local tooling
// stand in for the identity provider this way.
func GenerateToken(conf *core.Config, usr auth.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  "IESA",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: usr.Email,
		Name:  usr.Name,
		Role:  usr.Role,
		Type:  "access",
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(ctxTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextIdentity returns the authenticated user, or nil on public routes.
// Permissions are attached separately once the scope session is known.
func contextIdentity(ctx echo.Context) *auth.Identity {
	if usr, ok := ctx.Get(ctxIdentityKey).(*auth.Identity); ok {
		return usr
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil
	}
	usr := &auth.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}
	ctx.Set(ctxIdentityKey, usr)
	return usr
}

// rawBearerToken extracts the bearer token to forward on backend calls.
func rawBearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
