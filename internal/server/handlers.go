// Package server provides HTTP handlers and server setup for the sum service.
package server

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"sumcache/internal/core"
	"sumcache/internal/fingerprint"
	"sumcache/internal/memo"
)

// HeaderFingerprint carries the fingerprint of the summed input on POST /sum responses.
const HeaderFingerprint = "X-Fingerprint"

const readinessTimeout = 2 * time.Second

// Summer is the memoized computation the handlers serve.
type Summer interface {
	ComputeOrFetch(ctx context.Context, numbers []int64) (memo.Result, error)
	Lookup(ctx context.Context, fp fingerprint.Fingerprint) (*memo.Record, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers
type Handler struct {
	summer Summer
	checks map[string]Pinger
}

// NewHandler creates a new handler. checks are consulted by the readiness probe.
func NewHandler(summer Summer, checks map[string]Pinger) *Handler {
	return &Handler{
		summer: summer,
		checks: checks,
	}
}

// Sum handles POST /sum
//
// @Summary      Sum a list of integers, memoized by multiset
// @Tags         sum
// @Accept       json
// @Produce      json
// @Param        request  body      core.SumRequest  true  "Integers to sum"
// @Success      200      {object}  core.SumResponse
// @Failure      400      {object}  core.APIError
// @Failure      500      {object}  core.APIError
// @Failure      503      {object}  core.APIError
// @Router       /sum [post]
func (h *Handler) Sum(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if !errors.As(err, &httpErr) {
			err = core.NewInvalidRequestError("failed to read request body", err)
		}
		return handleError(c, err)
	}

	numbers, err := parseSumRequest(body)
	if err != nil {
		return handleError(c, err)
	}

	res, err := h.summer.ComputeOrFetch(c.Request().Context(), numbers)
	if err != nil {
		return handleError(c, err)
	}

	c.Response().Header().Set(HeaderFingerprint, res.Fingerprint.String())
	return c.JSON(http.StatusOK, core.SumResponse{Sum: res.Sum, Cached: res.Cached})
}

// Lookup handles GET /sum/:fingerprint
//
// @Summary      Look up a stored computation by fingerprint
// @Tags         sum
// @Produce      json
// @Param        fingerprint  path      string  true  "SHA-256 hex fingerprint"
// @Success      200          {object}  core.RecordResponse
// @Failure      400          {object}  core.APIError
// @Failure      404          {object}  core.APIError
// @Failure      503          {object}  core.APIError
// @Router       /sum/{fingerprint} [get]
func (h *Handler) Lookup(c echo.Context) error {
	fp, ok := fingerprint.Parse(c.Param("fingerprint"))
	if !ok {
		return handleError(c, core.NewInvalidRequestError("fingerprint must be 64 lowercase hex characters", nil))
	}

	rec, err := h.summer.Lookup(c.Request().Context(), fp)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, core.RecordResponse{
		Fingerprint: rec.Fingerprint.String(),
		RawInput:    rec.RawInput,
		Result:      rec.Result,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, core.HealthResponse{Status: "ok"})
}

// Ready handles GET /ready
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := core.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.JSON(status, resp)
}

// handleError converts memoizer and validation errors into JSON error responses.
func handleError(c echo.Context, err error) error {
	apiErr := toAPIError(err)
	if apiErr.Retryable() {
		c.Response().Header().Set("Retry-After", "1")
	}
	if apiErr.HTTPStatusCode() >= http.StatusInternalServerError {
		slog.Error("request failed",
			"type", apiErr.Type,
			"request_id", core.GetRequestID(c.Request().Context()),
			"error", err,
		)
	}
	return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
}

// errorHandler renders errors returned by middleware and unmatched routes, so that every
// error response has the same JSON shape as handler errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if herr := handleError(c, err); herr != nil {
		slog.Error("failed to write error response", "error", herr)
	}
}

func toAPIError(err error) *core.APIError {
	var (
		apiErr  *core.APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &httpErr):
		return fromHTTPError(httpErr)
	case errors.Is(err, memo.ErrOverflow):
		return core.NewOverflowError(err)
	case errors.Is(err, memo.ErrNotFound):
		return core.NewNotFoundError("no computation stored for this fingerprint")
	case errors.Is(err, memo.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return core.NewStorageUnavailableError(err)
	case isCorruptEncoding(err):
		return core.NewInvalidRequestError("request body does not match its Content-Encoding", err)
	default:
		return core.NewInternalError(err)
	}
}

func fromHTTPError(he *echo.HTTPError) *core.APIError {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	switch {
	case he.Code == http.StatusNotFound:
		return core.NewNotFoundError(msg)
	case he.Code >= http.StatusInternalServerError:
		return core.NewInternalError(he)
	default:
		apiErr := core.NewInvalidRequestError(msg, he)
		apiErr.StatusCode = he.Code
		return apiErr
	}
}

// isCorruptEncoding reports decoder failures raised before a handler reads the body,
// such as echo's gzip middleware rejecting the stream header.
func isCorruptEncoding(err error) bool {
	var corrupt flate.CorruptInputError
	return errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &corrupt)
}
