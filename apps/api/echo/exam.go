package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/coursework"
)

type examApi struct {
	svc      *coursework.Service
	validate *validator.Validate
}

type (
	// ExamDetail is the teacher's view of an exam with the attempts recorded
	// so far.
	ExamDetail struct {
		coursework.Exam
		Attempts []coursework.ExamAttempt `json:"attempts"`
	}

	// StudentExam is an exam with the student's own attempt, when one exists.
	StudentExam struct {
		coursework.Exam
		Attempt *coursework.ExamAttempt `json:"attempt"`
	}
)

func registerExamAPI(teacher, student *echo.Group, opts *Options) {
	api := examApi{
		svc:      opts.CourseworkSvc,
		validate: opts.Validate,
	}

	tg := teacher.Group("/exams")
	tg.GET("", api.queryOwn)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieveOwn)
	tg.PATCH("/:id", api.update)
	tg.DELETE("/:id", api.destroy)

	student.GET("/exams", api.queryForClass)
	student.GET("/exams/:id", api.retrieveForClass)
	student.POST("/exam-attempts", api.submitAttempt)
	student.GET("/exam-attempts", api.queryAttempts)
}

// Teacher handlers

func (api *examApi) queryOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	exams, err := api.svc.QueryTeacherExams(t.ID)
	if err != nil {
		return errors.Wrap(err, "querying teacher exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *examApi) create(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.CreateExam(t.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *examApi) retrieveOwn(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	e, err := api.svc.GetTeacherExam(t.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	attempts, err := api.svc.QueryExamAttempts(t.ID, e.ID)
	if err != nil {
		return errors.Wrap(err, "querying exam attempts")
	}
	return ctx.JSON(http.StatusOK, ExamDetail{Exam: e, Attempts: attempts})
}

func (api *examApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data coursework.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.UpdateExam(t.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *examApi) destroy(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteExam(t.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student handlers

func (api *examApi) queryForClass(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	exams, err := api.svc.QueryClassExams(st.ClassID.String)
	if err != nil {
		return errors.Wrap(err, "querying class exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *examApi) retrieveForClass(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	e, att, err := api.svc.GetStudentExam(st.ID, st.ClassID.String, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StudentExam{Exam: e, Attempt: att})
}

func (api *examApi) submitAttempt(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data coursework.NewAttempt
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttempt")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.SubmitExamAttempt(st.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *examApi) queryAttempts(ctx echo.Context) error {
	st, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	attempts, err := api.svc.QueryStudentAttempts(st.ID)
	if err != nil {
		return errors.Wrap(err, "querying student attempts")
	}
	return ctx.JSON(http.StatusOK, attempts)
}
