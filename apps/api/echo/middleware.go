package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	contextTeacherKey = "teacher"
	contextStudentKey = "student"
)

// roleMiddleware allows only principals whose storage role matches one of
// roles exactly. There is no hierarchy: an ADMIN is rejected from a
// TEACHER-gated route.
func roleMiddleware(svc *user.Service, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// teacherProfileMiddleware resolves the principal's Teacher profile and
// stashes it in the context.
func teacherProfileMiddleware(usrSvc *user.Service, schoolSvc *school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			t, err := schoolSvc.GetTeacherByUserID(usr.ID)
			if err != nil {
				return errTeacherProfileMissing
			}
			ctx.Set(contextTeacherKey, t)
			return next(ctx)
		}
	}
}

func getContextTeacher(ctx echo.Context) (school.Teacher, error) {
	if t, ok := ctx.Get(contextTeacherKey).(school.Teacher); ok {
		return t, nil
	}
	return school.Teacher{}, errTeacherProfileMissing
}

// studentProfileMiddleware resolves the principal's Student profile and
// stashes it in the context.
func studentProfileMiddleware(usrSvc *user.Service, schoolSvc *school.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, usrSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			st, err := schoolSvc.GetStudentByUserID(usr.ID)
			if err != nil {
				return errStudentProfileMissing
			}
			ctx.Set(contextStudentKey, st)
			return next(ctx)
		}
	}
}

func getContextStudent(ctx echo.Context) (school.Student, error) {
	if st, ok := ctx.Get(contextStudentKey).(school.Student); ok {
		return st, nil
	}
	return school.Student{}, errStudentProfileMissing
}
