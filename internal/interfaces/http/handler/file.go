package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/docgen/internal/infrastructure/logger"
	"github.com/erp/docgen/internal/infrastructure/storage"
)

// FileOpener opens documents written by the filesystem store
type FileOpener interface {
	Open(bucket, key string) (fs.File, error)
}

// FileHandler serves stored documents for the filesystem storage driver so
// that public URLs resolve without an external object store
type FileHandler struct {
	BaseHandler
	files FileOpener
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(files FileOpener) *FileHandler {
	return &FileHandler{files: files}
}

// ServeDocument streams /files/:bucket/*key
func (h *FileHandler) ServeDocument(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || !strings.EqualFold(path.Ext(key), ".pdf") {
		h.NotFound(c, "Document not found")
		return
	}

	f, err := h.files.Open(bucket, key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, storage.ErrInvalidPath) {
			logger.FromContext(c.Request.Context()).Error("failed to open document",
				zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
		}
		h.NotFound(c, "Document not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.NotFound(c, "Document not found")
		return
	}

	c.Header("Content-Disposition", inlineDisposition(path.Base(key)))
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", f, nil)
}
