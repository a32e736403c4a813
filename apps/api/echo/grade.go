package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

type gradeApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerGradeAPI(admin *echo.Group, opts *Options) {
	api := gradeApi{
		svc:      opts.SchoolSvc,
		validate: opts.Validate,
	}

	gg := admin.Group("/grades")
	gg.GET("", api.query)
	gg.POST("", api.create)
	gg.GET("/:id", api.retrieve)
	gg.PATCH("/:id", api.update)
	gg.DELETE("/:id", api.destroy)
}

func (api *gradeApi) query(ctx echo.Context) error {
	grades, err := api.svc.QueryGrades()
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data school.NameInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.CreateGrade(data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetGrade(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	var data school.NameInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.UpdateGrade(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteGrade(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
