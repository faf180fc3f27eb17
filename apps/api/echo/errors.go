package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/fileobj"
	"github.com/trezcool/darasa/core/leave"
)

// error codes the upload client keys its reconciliation on
const (
	codeAlreadyConfirmed = "already_confirmed"
	codeInvalidState     = "invalid_state"
	codeNotFound         = "not_found"
)

// errorResponse is the wire shape for every handled error. Error always
// carries a human-readable message; Code is set for errors clients dispatch
// on; Fields carries per-field validation messages.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		res := errorResponse{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				res.Error = msg
			} else {
				res.Error = http.StatusText(code)
			}
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			res.Error = "invalid request"
			res.Fields = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			res.Error = origErr.Error()
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				res.Fields = fldErrs
			}
		default:
			switch {
			// errors.Is walks wrapped chains so annotated state errors still
			// map to their code.
			case errors.Is(cause, fileobj.ErrAlreadyConfirmed):
				code = http.StatusConflict
				res = errorResponse{Error: err.Error(), Code: codeAlreadyConfirmed}
			case errors.Is(cause, fileobj.ErrInvalidState):
				code = http.StatusConflict
				res = errorResponse{Error: err.Error(), Code: codeInvalidState}
			case errors.Is(cause, fileobj.ErrNotFound), errors.Is(cause, leave.ErrNotFound):
				code = http.StatusNotFound
				res = errorResponse{Error: err.Error(), Code: codeNotFound}
			case errors.Is(cause, leave.ErrNotCancellable):
				code = http.StatusConflict
				res = errorResponse{Error: err.Error()}
			default: // any other error is a server error
				msg := http.StatusText(http.StatusInternalServerError)
				res = errorResponse{Error: msg}
				logger.Error(msg, errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && res.Fields == nil {
			res.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
