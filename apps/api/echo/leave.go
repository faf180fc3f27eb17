package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/leave"
)

type leaveApi struct {
	svc      *leave.Service
	validate *validator.Validate
}

func registerLeaveAPI(g *echo.Group, svc *leave.Service, validate *validator.Validate) {
	api := leaveApi{svc: svc, validate: validate}

	lg := g.Group("/leave")
	lg.POST("", api.create)
	lg.GET("/:id", api.retrieve)
	lg.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *leaveApi) create(ctx echo.Context) error {
	var data leave.NewLeaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeaveRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	lr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating leave request")
	}
	return ctx.JSON(http.StatusCreated, lr)
}

func (api *leaveApi) retrieve(ctx echo.Context) error {
	lr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lr)
}

// cancel is the compensating endpoint the upload saga calls when attachments
// fail to land in full. Cancelling twice is a no-op.
func (api *leaveApi) cancel(ctx echo.Context) error {
	lr, err := api.svc.Cancel(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lr)
}
