package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iesahq/portal/core"
	"github.com/iesahq/portal/core/auth"
	backendsvc "github.com/iesahq/portal/services/backend"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Backend        *backendsvc.Client
		MailSvc        core.EmailService
		Prefs          PrefStoreProvider
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	// page routes: lenient auth, gate failures redirect
	pages := s.app.Group("", s.pageAuthMiddleware())
	pages.GET(auth.StudentLandingPath, dashboardHome, s.gateMiddleware(auth.Gate{}, asPage()))
	pages.GET(auth.AdminLandingPath, adminHome, s.gateMiddleware(auth.Gate{Roles: []string{auth.RoleAdmin}}, asPage()))
	pages.GET("/admin/payments", paymentsHome, s.gateMiddleware(auth.Gate{Permission: auth.PermPaymentApprove}, asPage()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(v1, jwt, s)
	registerSessionAPI(v1, jwt, s)
	registerAnnouncementAPI(v1, jwt, s)
	registerEventAPI(v1, jwt, s)
	registerPressAPI(v1, jwt, s)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the IESA Portal API!")
}

func dashboardHome(ctx echo.Context) error {
	usr := contextIdentity(ctx)
	return ctx.HTML(http.StatusOK, "<h1>Dashboard</h1><p>Welcome back, "+usr.Name+"</p>")
}

func adminHome(ctx echo.Context) error {
	usr := contextIdentity(ctx)
	return ctx.HTML(http.StatusOK, "<h1>Admin</h1><p>Signed in as "+usr.Email+"</p>")
}

func paymentsHome(ctx echo.Context) error {
	return ctx.HTML(http.StatusOK, "<h1>Payment approvals</h1>")
}
