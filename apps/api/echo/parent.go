package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/school"
)

type parentApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerParentAPI(admin *echo.Group, opts *Options) {
	api := parentApi{
		svc:      opts.SchoolSvc,
		validate: opts.Validate,
	}

	pg := admin.Group("/parents")
	pg.GET("", api.query)
	pg.POST("", api.create)
	pg.GET("/:id", api.retrieve)
	pg.PATCH("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

func (api *parentApi) query(ctx echo.Context) error {
	parents, err := api.svc.QueryParents()
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *parentApi) create(ctx echo.Context) error {
	var data school.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.CreateParent(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetParent(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) update(ctx echo.Context) error {
	var data school.UpdateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.UpdateParent(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteParent(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
