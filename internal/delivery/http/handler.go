package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memberdesk/backend/internal/domain"
	"github.com/memberdesk/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	maxBodySize   = 1 << 20
	maxUploadSize = 10 << 20
)

// uploadFields are the multipart parts that may carry an order image.
var uploadFields = []string{"image", "file"}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	dispatcher *usecase.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(dispatcher *usecase.Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "memberdesk-backend",
		"version": "1.0.0",
	})
}

// Operations lists the operations the dispatcher accepts.
func (h *Handler) Operations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"operations": usecase.Operations()})
}

// Dispatch returns a handler running op through the dispatcher.
func (h *Handler) Dispatch(op usecase.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.dispatcher == nil {
			writeError(c, http.StatusNotImplemented, domain.KindNotConfigured, "dispatcher not configured")
			return
		}

		req, err := readRequest(c)
		if err != nil {
			h.logger.Debug("bad request body",
				zap.String("operation", string(op)),
				zap.String("request_id", c.GetString(requestIDKey)),
				zap.Error(err))
			writeError(c, http.StatusBadRequest, domain.KindValidation, err.Error())
			return
		}

		resp := h.dispatcher.Handle(c.Request.Context(), op, req)
		c.JSON(resp.HTTPStatus, resp)
	}
}

// readRequest decodes a JSON object or a multipart form into a dispatcher
// request. An empty body is an empty payload.
func readRequest(c *gin.Context) (usecase.Request, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return readMultipart(c)
	}

	fields := map[string]interface{}{}
	if c.Request.Body == nil {
		return usecase.Request{Fields: fields}, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		return usecase.Request{}, fmt.Errorf("reading body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return usecase.Request{Fields: fields}, nil
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return usecase.Request{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	return usecase.Request{Fields: fields}, nil
}

func readMultipart(c *gin.Context) (usecase.Request, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		return usecase.Request{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	req := usecase.Request{Fields: make(map[string]interface{}, len(form.Value))}
	for k, vs := range form.Value {
		if len(vs) > 0 {
			req.Fields[k] = vs[0]
		}
	}

	for _, name := range uploadFields {
		header, err := c.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return usecase.Request{}, fmt.Errorf("reading %s: %w", name, err)
		}
		f, err := header.Open()
		if err != nil {
			return usecase.Request{}, fmt.Errorf("opening %s: %w", name, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return usecase.Request{}, fmt.Errorf("reading %s: %w", name, err)
		}
		ct := header.Header.Get("Content-Type")
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		req.File = &usecase.Upload{Data: data, ContentType: ct}
		break
	}
	return req, nil
}

func writeError(c *gin.Context, status int, kind domain.ErrorKind, msg string) {
	c.JSON(status, usecase.Response{
		Status:     domain.StatusError,
		HTTPStatus: status,
		Body: usecase.ErrorBody{
			Status:  domain.StatusError,
			Kind:    kind,
			Message: msg,
		},
	})
}
