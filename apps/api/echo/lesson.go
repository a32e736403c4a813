package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/coursework"
)

type lessonApi struct {
	svc      *coursework.Service
	validate *validator.Validate
}

func registerLessonAPI(teacher, student *echo.Group, opts *Options) {
	api := lessonApi{
		svc:      opts.CourseworkSvc,
		validate: opts.Validate,
	}

	tg := teacher.Group("/lessons")
	tg.GET("", api.queryOwn)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieveOwn)
	tg.PATCH("/:id", api.update)
	tg.DELETE("/:id", api.destroy)

	sg := student.Group("/lessons")
	sg.GET("", api.queryForClass)
	sg.GET("/:id", api.retrieveForClass)
}

// Teacher handlers

func (api *lessonApi) queryOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	lessons, err := api.svc.QueryTeacherLessons(t.ID, ctx.QueryParam("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying teacher lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) create(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLesson(t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *lessonApi) retrieveOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	l, err := api.svc.GetTeacherLesson(t.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.UpdateLesson(t.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLesson(t.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student handlers

func (api *lessonApi) queryForClass(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	lessons, err := api.svc.QueryClassLessons(st.ClassID.String, ctx.QueryParam("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying class lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) retrieveForClass(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	l, err := api.svc.GetClassLesson(st.ClassID.String, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}
