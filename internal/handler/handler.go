package handler

import (
	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/middleware"
	"marketplace-checkout/internal/model"

	"github.com/labstack/echo/v4"
)

func principal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return model.Principal{}, apperr.Unauthorized("Unauthorized")
	}
	return p, nil
}

func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "Invalid request body")
	}
	return nil
}
