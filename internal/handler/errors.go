package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/logging"
)

const msgInternal = "internal server error"

// ErrorHandler renders every error that reaches Echo as {"error": "..."}.
// Unexpected errors are logged and reported as a bare 500.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := msgInternal

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok && code < http.StatusInternalServerError {
				msg = s
			} else if code < http.StatusInternalServerError {
				msg = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("request_id", requestID(c)),
				logging.Err(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.ErrorContext(c.Request().Context(), "write error response", logging.Err(err))
		}
	}
}

// internalError logs err under op and answers 500 without detail.
func internalError(c echo.Context, log *slog.Logger, op string, err error) error {
	log.ErrorContext(c.Request().Context(), "request failed",
		slog.String("op", op),
		slog.String("request_id", requestID(c)),
		logging.Err(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgInternal})
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
