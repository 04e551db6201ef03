// Package api exposes metadata extraction over a small REST surface:
// POST /v1/extractions runs a pass and stores the result, GET and
// DELETE address stored results by ID.
package api

import (
	"io"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ggufmeta/internal/extract"
)

// Runner runs one extraction; swapped out in tests.
type Runner func(path string, opts extract.Options) (*extract.Result, error)

type Server struct {
	store *ExtractionStore
	run   Runner
	clock func() time.Time
}

func NewServer(store *ExtractionStore, run Runner) *Server {
	if store == nil {
		store = NewExtractionStore()
	}
	if run == nil {
		run = extract.Run
	}
	return &Server{
		store: store,
		run:   run,
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/extractions", s.handleCreateExtraction)
	e.GET("/v1/extractions", s.handleListExtractions)
	e.GET("/v1/extractions/:id", s.handleGetExtraction)
	e.DELETE("/v1/extractions/:id", s.handleDeleteExtraction)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateExtraction(c *echo.Context) error {
	req, err := decodeJSON[ExtractionRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Path == "" {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", "path is required", "path", "")
	}

	res, err := s.run(req.Path, extract.Options{
		Markers: req.Markers,
		Table:   req.Table,
	})
	if err != nil {
		if os.IsNotExist(err) {
			return writeNotFound(c, "checkpoint not found: "+req.Path)
		}
		return writeError(c, http.StatusUnprocessableEntity, "extraction_error", err.Error(), "", "")
	}

	resp := s.store.Create(res, s.clock())
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListExtractions(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   s.store.List(),
	})
}

func (s *Server) handleGetExtraction(c *echo.Context) error {
	id := c.Param("id")
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "no extraction with id "+id)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteExtraction(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "no extraction with id "+id)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"object":  "extraction.deleted",
		"deleted": true,
	})
}

func decodeJSON[T any](r io.Reader) (*T, error) {
	var v T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}
