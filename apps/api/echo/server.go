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
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/coursework"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger        core.Logger
		UserSvc       *user.Service
		SchoolSvc     *school.Service
		CourseworkSvc *coursework.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	admin := v1.Group("/admin", jwt, roleMiddleware(s.opts.UserSvc, user.RoleAdmin))
	teacher := v1.Group(
		"/teacher", jwt,
		roleMiddleware(s.opts.UserSvc, user.RoleTeacher),
		teacherProfileMiddleware(s.opts.UserSvc, s.opts.SchoolSvc),
	)
	student := v1.Group(
		"/student", jwt,
		roleMiddleware(s.opts.UserSvc, user.RoleStudent),
		studentProfileMiddleware(s.opts.UserSvc, s.opts.SchoolSvc),
	)

	registerAuthAPI(v1, jwt, s.opts)
	registerGradeAPI(admin, s.opts)
	registerClassAPI(admin, s.opts)
	registerSubjectAPI(admin, teacher, s.opts)
	registerTeacherAPI(admin, s.opts)
	registerStudentAPI(admin, s.opts)
	registerParentAPI(admin, s.opts)
	registerLessonAPI(teacher, student, s.opts)
	registerHomeworkAPI(teacher, student, s.opts)
	registerExamAPI(teacher, student, s.opts)
}

// signalShutdown triggers a graceful shutdown; used by the error handler on
// unrecoverable errors.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- s.app.Start(s.opts.Address)
	}()

	select {
	case err := <-serverErrors:
		s.opts.Logger.Fatal("server error", errors.Wrap(err, "starting server"))
	case sig := <-s.shutdown:
		s.opts.Logger.Info("shutdown started", map[string]interface{}{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Stop(ctx); err != nil {
			_ = s.app.Close()
			s.opts.Logger.Fatal("could not stop server gracefully", errors.Wrap(err, "stopping server"))
		}
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Shule API!")
}
