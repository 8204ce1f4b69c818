package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	printingapp "github.com/erp/docgen/internal/application/printing"
)

// DocumentService is the application service behind the document endpoints
type DocumentService interface {
	Generate(ctx context.Context, req *printingapp.GenerateDocumentRequest) (*printingapp.GenerateDocumentResponse, error)
	Render(ctx context.Context, req *printingapp.GenerateDocumentRequest) (*printingapp.AssembledDocument, error)
	Status(ctx context.Context, bucket, key string) (*printingapp.UploadStatusResponse, error)
	ParseRegistration(ctx context.Context, req printingapp.ParseRegistrationRequest) (map[string]string, error)
	GetPaperSizes() []printingapp.PaperSizeResponse
	GetTemplates() []printingapp.TemplateResponse
}

// DocumentHandler handles document generation endpoints
type DocumentHandler struct {
	BaseHandler
	service DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// StatusQuery identifies a stored document
type StatusQuery struct {
	Bucket string `form:"bucket" binding:"required"`
	Key    string `form:"key" binding:"required,max=1024"`
}

// RegisterRoutes mounts the document endpoints under rg
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.POST("", h.Generate)
	docs.POST("/render", h.Render)
	docs.GET("/status", h.Status)
	docs.POST("/parse", h.ParseRegistration)
	docs.GET("/paper-sizes", h.GetPaperSizes)
	docs.GET("/templates", h.GetTemplates)
}

// Generate godoc
//
//	@Summary		Generate document
//	@Description	Assemble an invoice or payslip PDF and queue its upload
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		printingapp.GenerateDocumentRequest	true	"Document"
//	@Success		201		{object}	dto.Response{data=printingapp.GenerateDocumentResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		401		{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req printingapp.GenerateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Render godoc
//
//	@Summary		Render document
//	@Description	Assemble a document and return the PDF bytes without uploading
//	@Tags			documents
//	@Accept			json
//	@Produce		application/pdf
//	@Param			request	body		printingapp.GenerateDocumentRequest	true	"Document"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/documents/render [post]
func (h *DocumentHandler) Render(c *gin.Context) {
	var req printingapp.GenerateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Render(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", inlineDisposition(doc.Filename))
	c.Header("X-Page-Count", strconv.Itoa(doc.PageCount))
	c.Data(http.StatusOK, "application/pdf", doc.Bytes)
}

// Status godoc
//
//	@Summary		Upload status
//	@Description	Report the background upload state of a generated document
//	@Tags			documents
//	@Produce		json
//	@Param			bucket	query		string	true	"Bucket"
//	@Param			key		query		string	true	"Object key"
//	@Success		200		{object}	dto.Response{data=printingapp.UploadStatusResponse}
//	@Failure		404		{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/documents/status [get]
func (h *DocumentHandler) Status(c *gin.Context) {
	var q StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "bucket and key are required")
		return
	}

	status, err := h.service.Status(c.Request.Context(), q.Bucket, q.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// ParseRegistration godoc
//
//	@Summary		Parse tax registration
//	@Description	Download a RUT PDF and extract its identification fields
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		printingapp.ParseRegistrationRequest	true	"PDF location"
//	@Success		200		{object}	dto.Response{data=map[string]string}
//	@Failure		422		{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/documents/parse [post]
func (h *DocumentHandler) ParseRegistration(c *gin.Context) {
	var req printingapp.ParseRegistrationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	fields, err := h.service.ParseRegistration(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fields)
}

// GetPaperSizes returns the available paper presets
func (h *DocumentHandler) GetPaperSizes(c *gin.Context) {
	h.Success(c, h.service.GetPaperSizes())
}

// GetTemplates returns the available templates
func (h *DocumentHandler) GetTemplates(c *gin.Context) {
	h.Success(c, h.service.GetTemplates())
}
