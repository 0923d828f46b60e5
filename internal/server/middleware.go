package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kitbuilder587/estimator-agents/internal/domain"
)

const notFoundRoute = "/not-found"

// observe пишет метрики и лог запроса. Ошибку обрабатывает сам, чтобы статус был известен.
func (s *Server) observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			s.metrics.IncRequestsInFlight()
			defer s.metrics.DecRequestsInFlight()

			if err := next(c); err != nil {
				c.Error(err)
			}

			elapsed := time.Since(start)
			route := c.Path()
			// чтобы 404 на случайные пути не раздували кардинальность
			if route == "" || isNotFoundHandler(c.Handler()) {
				route = notFoundRoute
			}
			status := c.Response().Status
			s.metrics.RecordRequest(route, strconv.Itoa(status), elapsed)

			if route == "/health" {
				return nil
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("route", route),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
				zap.String("remote_ip", c.RealIP()),
				zap.String("request_id", requestID(c)),
			}
			switch {
			case status >= http.StatusInternalServerError:
				s.logger.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				s.logger.Warn("request rejected", fields...)
			default:
				s.logger.Info("request handled", fields...)
			}
			return nil
		}
	}
}

// rateLimit - лимит на клиента по адресу; health и metrics не ограничиваем
func (s *Server) rateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.limiter == nil {
				return next(c)
			}
			switch c.Path() {
			case "/health", "/metrics":
				return next(c)
			}

			client := c.RealIP()
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.Limit()))
			if !s.limiter.Allow(client) {
				s.metrics.RecordRateLimitHit()
				retry := time.Until(s.limiter.ResetTime(client))
				h.Set("X-RateLimit-Remaining", "0")
				h.Set("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()+0.5))))
				return c.JSON(http.StatusTooManyRequests, domain.ErrorPayload{Error: "rate limit exceeded"})
			}
			h.Set("X-RateLimit-Remaining", strconv.Itoa(s.limiter.RemainingRequests(client)))
			return next(c)
		}
	}
}

// requestID - id, выданный middleware.RequestID (или пришедший от клиента)
func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// errorHandler отдаёт ошибки как {"error": "..."}; детали внутренних ошибок только в лог
func (s *Server) errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if code == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
				msg = "no route matched"
			}
		case errors.Is(err, context.Canceled) && errors.Is(c.Request().Context().Err(), context.Canceled):
			// клиент ушёл, отвечать уже некому
			code = 499
			msg = "client closed request"
		default:
			s.logger.Error("unhandled error",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, domain.ErrorPayload{Error: msg})
		}
		if werr != nil {
			s.logger.Error("could not write error response", zap.Int("code", code), zap.Error(werr))
		}
	}
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	if handler == nil {
		return false
	}
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}
