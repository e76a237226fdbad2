package session

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-checker/internal/documents"
	"ats-checker/internal/shared/server/respond"
)

// maxUploadBody leaves room for multipart framing around the largest file.
const maxUploadBody = documents.MaxPDFBytes + 1<<20

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes mounts the session endpoints.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.create)
	sessions.GET("/:id", h.get)
	sessions.DELETE("/:id", h.delete)
	sessions.POST("/:id/document", h.upload)
	sessions.POST("/:id/analyze", h.analyze)
	sessions.POST("/:id/reset", h.reset)
}

type analyzeRequest struct {
	JobTitle          string `json:"jobTitle"`
	JobDescriptionRef string `json:"jobDescriptionRef"`
}

func (h *Handler) create(c *gin.Context) {
	s := h.manager.Create()
	c.Set("sessionId", s.ID())
	writeSnapshot(c, http.StatusCreated, s.Snapshot())
}

func (h *Handler) get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	writeSnapshot(c, http.StatusOK, s.Snapshot())
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reset(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	writeSnapshot(c, http.StatusOK, s.Reset())
}

func (h *Handler) upload(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, oversizedBody(c.Request.ContentLength))
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart field \"file\" is required", nil)
		return
	}

	declared := documents.NewDocument(header.Filename, header.Header.Get("Content-Type"), nil)
	declared.SizeBytes = header.Size
	if err := documents.Validate(declared.Descriptor()); err != nil {
		if _, startErr := s.StartExtraction(c.Request.Context(), declared); errors.Is(startErr, ErrBusy) {
			err = startErr
		}
		writeError(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}

	doc := documents.NewDocument(header.Filename, header.Header.Get("Content-Type"), data)
	done, err := s.StartExtraction(context.WithoutCancel(c.Request.Context()), doc)
	if err != nil {
		writeError(c, err)
		return
	}
	h.reply(c, s, done)
}

func (h *Handler) analyze(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	done, err := s.Analyze(context.WithoutCancel(c.Request.Context()), AnalyzeParams{
		JobTitle:          req.JobTitle,
		JobDescriptionRef: req.JobDescriptionRef,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.reply(c, s, done)
}

// reply answers 202 with the in-flight snapshot, or waits for the settled
// one when the caller asks with ?wait=true.
func (h *Handler) reply(c *gin.Context, s *Session, done <-chan Snapshot) {
	if c.Query("wait") != "true" {
		writeSnapshot(c, http.StatusAccepted, s.Snapshot())
		return
	}
	select {
	case snap, ok := <-done:
		if !ok {
			snap = s.Snapshot()
		}
		writeSnapshot(c, http.StatusOK, snap)
	case <-c.Request.Context().Done():
		writeSnapshot(c, http.StatusAccepted, s.Snapshot())
	}
}

func writeSnapshot(c *gin.Context, status int, snap Snapshot) {
	c.Set("sessionState", string(snap.State))
	respond.JSON(c, status, snap)
}

func (h *Handler) lookup(c *gin.Context) (*Session, bool) {
	id := c.Param("id")
	s, err := h.manager.Get(id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	c.Set("sessionId", id)
	return s, true
}

// oversizedBody reports a body cut off by the upload cap. The file size is
// only known when the client declared a Content-Length.
func oversizedBody(contentLength int64) *documents.TooLargeError {
	err := &documents.TooLargeError{Limit: documents.MaxPDFBytes}
	if contentLength > 0 {
		err.Size = contentLength
	}
	return err
}

func writeError(c *gin.Context, err error) {
	code := ErrorCode(err)
	respond.Error(c, statusFor(code), code, UserMessage(err), nil)
}

func statusFor(code string) int {
	switch code {
	case "busy", "not_ready":
		return http.StatusConflict
	case "validation_error":
		return http.StatusBadRequest
	case "configuration_error":
		return http.StatusServiceUnavailable
	case "nothing_to_analyze":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "unsupported_type":
		return http.StatusUnsupportedMediaType
	case "too_large":
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
