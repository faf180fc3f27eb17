package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/fileobj"
)

type uploadApi struct {
	svc      *fileobj.Service
	validate *validator.Validate
}

func registerUploadAPI(g *echo.Group, svc *fileobj.Service, validate *validator.Validate) {
	api := uploadApi{svc: svc, validate: validate}

	ug := g.Group("/upload")
	ug.POST("/create", api.create)
	ug.POST("/confirm", api.confirm)

	g.GET("/business/:type/:id/files", api.listFiles)
}

type (
	createSessionRequest struct {
		BucketPurpose    string `json:"bucketPurpose" validate:"required"`
		OriginalFilename string `json:"originalFilename" validate:"required,filename"`
		BusinessRefType  string `json:"businessRefType" validate:"required"`
		BusinessRefID    string `json:"businessRefId" validate:"required"`
		ExpectedSize     int64  `json:"expectedSize" validate:"gte=0"`
	}

	sessionResponse struct {
		FileObjectID  string `json:"fileObjectId"`
		PresignedURL  string `json:"presignedUrl"`
		ExpireSeconds int    `json:"expireSeconds"`
	}

	confirmRequest struct {
		FileObjectID string `json:"fileObjectId" validate:"required"`
		SizeBytes    int64  `json:"sizeBytes" validate:"gte=0"`
		ContentType  string `json:"mimeType"`
	}
)

// Handlers

func (api *uploadApi) create(ctx echo.Context) error {
	var data createSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to createSessionRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	sess, err := api.svc.CreateSession(
		ctx.Request().Context(),
		data.BucketPurpose, data.OriginalFilename, data.BusinessRefType, data.BusinessRefID, data.ExpectedSize,
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, sessionResponse{
		FileObjectID:  sess.FileObject.ID,
		PresignedURL:  sess.PresignedURL,
		ExpireSeconds: sess.ExpireSeconds,
	})
}

func (api *uploadApi) confirm(ctx echo.Context) error {
	var data confirmRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to confirmRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	fo, err := api.svc.Confirm(ctx.Request().Context(), data.FileObjectID, data.SizeBytes, data.ContentType)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fo)
}

func (api *uploadApi) listFiles(ctx echo.Context) error {
	fos, err := api.svc.ListCommitted(
		ctx.Request().Context(),
		ctx.Param("type"), ctx.Param("id"), ctx.QueryParam("bucketPurpose"),
	)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fos)
}
