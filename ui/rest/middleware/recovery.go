package middleware

import (
	"fmt"

	pkgError "github.com/NeetCrusader/rich-presence/pkg/error"
	"github.com/NeetCrusader/rich-presence/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				appErr, isAppError := err.(pkgError.GenericError)
				if isAppError {
					res.Status = appErr.StatusCode()
					res.Code = appErr.ErrCode()
					res.Message = appErr.Error()
				} else {
					logrus.Errorf("Panic recovered in middleware: %v", err)
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
