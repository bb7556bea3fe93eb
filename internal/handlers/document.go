package handlers

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/docgen"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/labstack/echo/v4"
)

type DocumentService interface {
	Generate(ctx context.Context, request docgen.GenerateRequest) (*docgen.GenerateResult, error)
	FileName(ctx context.Context, request docgen.GenerateRequest) (*docgen.FileNameResult, error)
}

// DocumentHandler exposes document generation over HTTP.
type DocumentHandler struct {
	service DocumentService
	logger  ectologger.Logger
}

func NewDocumentHandler(service DocumentService, logger ectologger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// bind decodes the body only. Argument validation belongs to the service so that
// missing arguments are reported as generation errors.
func bind(c echo.Context) (docgen.GenerateRequest, error) {
	var request docgen.GenerateRequest
	if err := c.Bind(&request); err != nil {
		return request, BadRequest("invalid request body")
	}
	return request, nil
}

// Generate handles POST /documents/generate
func (h *DocumentHandler) Generate(c echo.Context) error {
	request, err := bind(c)
	if err != nil {
		return err
	}

	result, err := h.service.Generate(c.Request().Context(), request)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// Preview handles POST /documents/preview
func (h *DocumentHandler) Preview(c echo.Context) error {
	request, err := bind(c)
	if err != nil {
		return err
	}
	request.Action = models.ActionPreview

	result, err := h.service.Generate(c.Request().Context(), request)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

// FileName handles POST /documents/filename
func (h *DocumentHandler) FileName(c echo.Context) error {
	request, err := bind(c)
	if err != nil {
		return err
	}

	result, err := h.service.FileName(c.Request().Context(), request)
	if err != nil {
		return err
	}

	return SuccessResponse(c, result)
}

func (h *DocumentHandler) RegisterRoutes(g *echo.Group) {
	documents := g.Group("/documents")
	documents.POST("/generate", h.Generate)
	documents.POST("/preview", h.Preview)
	documents.POST("/filename", h.FileName)
}
