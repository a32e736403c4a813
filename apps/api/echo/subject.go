package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

type subjectApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSubjectAPI(admin, teacher *echo.Group, opts *Options) {
	api := subjectApi{
		svc:      opts.SchoolSvc,
		validate: opts.Validate,
	}

	sg := admin.Group("/subjects")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id", api.update)
	sg.DELETE("/:id", api.destroy)

	// a teacher only sees the subjects their assignments cover
	teacher.GET("/subjects", api.queryOwn)
}

func (api *subjectApi) query(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects()
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) queryOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.QueryTeacherSubjects(t.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data school.NameInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSubject(data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetSubject(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) update(ctx echo.Context) error {
	var data school.NameInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSubject(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteSubject(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
