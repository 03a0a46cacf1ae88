package server

import (
	"io"
	"log/slog"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"sumcache/internal/core"
)

// requestID echoes a client-provided X-Request-ID or assigns a UUID, and stores it on the
// request context for downstream logging.
func requestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), id)))
		},
	})
}

// requestLogger writes one structured line per request through slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			if v.Status >= 500 {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// brotliDecompress decodes request bodies sent with Content-Encoding: br.
// Gzip is handled by echo's Decompress middleware.
func brotliDecompress() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			encoding := strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding))
			if !strings.EqualFold(encoding, "br") || req.Body == nil {
				return next(c)
			}

			body := req.Body
			req.Body = struct {
				io.Reader
				io.Closer
			}{brotli.NewReader(body), body}
			req.Header.Del(echo.HeaderContentEncoding)
			req.ContentLength = -1
			return next(c)
		}
	}
}
