package server

import (
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// errorHandler renders every error as {"error": ..., "code": ...}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := dto.ErrorResponse{Error: "Internal server error"}

	var httpErr *echo.HTTPError
	if appErr, ok := apperr.As(err); ok {
		status = apperr.HTTPStatus(appErr.Kind)
		body = dto.ErrorResponse{Error: appErr.Message, Code: string(appErr.Code)}
	} else if errors.As(err, &httpErr) {
		status = httpErr.Code
		body = dto.ErrorResponse{Error: fmt.Sprint(httpErr.Message)}
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.WithError(err).Error("write error response")
	}
}
