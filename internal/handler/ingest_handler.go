package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/pkg/errcode"
	"github.com/propdesk/propdesk/internal/pkg/response"
	"github.com/propdesk/propdesk/internal/service"
)

type IngestHandler struct {
	ingest    *service.IngestService
	maxUpload int64
}

func NewIngestHandler(ingest *service.IngestService, maxUpload int64) *IngestHandler {
	return &IngestHandler{ingest: ingest, maxUpload: maxUpload}
}

// Upload accepts one document as a multipart "file" part. The declared
// Content-Type of the part decides the extractor; there is no sniffing.
func (h *IngestHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file part required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open upload failed")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "read upload failed")
		return
	}
	mimeType := file.Header.Get("Content-Type")

	doc, err := h.ingest.Submit(c.Request.Context(), data, mimeType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *IngestHandler) Get(c *gin.Context) {
	status, err := h.ingest.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, status)
}
