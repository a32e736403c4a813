package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/coursework"
)

type homeworkApi struct {
	svc      *coursework.Service
	validate *validator.Validate
}

// HomeworkDetail is the teacher's view of a homework with the submissions
// received so far.
type HomeworkDetail struct {
	coursework.Homework
	Submissions []coursework.Submission `json:"submissions"`
}

func registerHomeworkAPI(teacher, student *echo.Group, opts *Options) {
	api := homeworkApi{
		svc:      opts.CourseworkSvc,
		validate: opts.Validate,
	}

	tg := teacher.Group("/homework")
	tg.GET("", api.queryOwn)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieveOwn)
	tg.PATCH("/:id", api.update)
	tg.DELETE("/:id", api.destroy)

	student.GET("/homework", api.queryForClass)
	student.POST("/submissions", api.submit)
	student.GET("/submissions", api.querySubmissions)
}

// Teacher handlers

func (api *homeworkApi) queryOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	hws, err := api.svc.QueryTeacherHomework(t.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher homework")
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) create(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.NewHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hw, err := api.svc.CreateHomework(t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *homeworkApi) retrieveOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	hw, err := api.svc.GetTeacherHomework(t.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	subs, err := api.svc.QueryHomeworkSubmissions(t.ID, hw.ID)
	if err != nil {
		return errors.Wrap(err, "querying homework submissions")
	}
	return ctx.JSON(http.StatusOK, HomeworkDetail{Homework: hw, Submissions: subs})
}

func (api *homeworkApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.UpdateHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	hw, err := api.svc.UpdateHomework(t.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) destroy(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteHomework(t.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student handlers

func (api *homeworkApi) queryForClass(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	hws, err := api.svc.QueryClassHomework(st.ClassID.String)
	if err != nil {
		return errors.Wrap(err, "querying class homework")
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) submit(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data coursework.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.SubmitHomework(st.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *homeworkApi) querySubmissions(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.QueryStudentSubmissions(st.ID, ctx.QueryParam("homeworkId"))
	if err != nil {
		return errors.Wrap(err, "querying student submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}
