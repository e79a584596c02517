package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/datasets/archive"
	"github.com/kbukum/datasets/coco"
	apperrors "github.com/kbukum/datasets/errors"
	"github.com/kbukum/datasets/logger"
	"github.com/kbukum/datasets/observability"
	"github.com/kbukum/datasets/pipeline"
	"github.com/kbukum/datasets/resilience"
	"github.com/kbukum/datasets/sse"
	"github.com/kbukum/datasets/version"
)

// ContentTypeNDJSON is the media type of sample streams.
const ContentTypeNDJSON = "application/x-ndjson"

// Source opens the inputs of one pass. coco.Source implements it.
type Source interface {
	Open() (images, meta *pipeline.Pipeline[archive.Entry], err error)
}

// Handlers serves a dataset over HTTP. Every sample request runs its own pass
// over freshly opened inputs.
type Handlers struct {
	service  string
	dataset  *coco.Dataset
	source   Source
	checkers []observability.HealthChecker
	maxLimit int
	passes   *resilience.Bulkhead
	log      *logger.Logger
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithHealthCheckers sets the checkers reported by /healthz.
func WithHealthCheckers(checkers ...observability.HealthChecker) HandlerOption {
	return func(h *Handlers) { h.checkers = append(h.checkers, checkers...) }
}

// WithMaxLimit caps the number of samples a single request may ask for.
// Requests without a limit get at most n samples. Zero means no cap.
func WithMaxLimit(n int) HandlerOption {
	return func(h *Handlers) { h.maxLimit = n }
}

// WithMaxPasses bounds the number of sample streams served at once. Requests
// beyond it wait up to wait for a slot and are then rejected with 429.
func WithMaxPasses(n int, wait time.Duration) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.passes = resilience.NewBulkhead(resilience.BulkheadConfig{Name: "pass", MaxConcurrent: n, MaxWait: wait})
		}
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l *logger.Logger) HandlerOption {
	return func(h *Handlers) { h.log = l }
}

// NewHandlers creates the handlers of service for dataset d reading from src.
func NewHandlers(service string, d *coco.Dataset, src Source, opts ...HandlerOption) *Handlers {
	h := &Handlers{service: service, dataset: d, source: src}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Get("server")
	}
	return h
}

// Health reports the aggregated component health; 503 when any input is down.
func (h *Handlers) Health(c *gin.Context) {
	sh := observability.CheckAll(c.Request.Context(), h.service, version.GetShortVersion(), h.checkers...)
	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

// Version reports build information.
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetVersionInfo())
}

type infoResponse struct {
	Dataset   coco.DatasetInfo  `json:"dataset"`
	Options   coco.Options      `json:"options"`
	Resources *coco.ResourceSet `json:"resources,omitempty"`
}

// Info describes the dataset, the configured options and their published
// resources.
func (h *Handlers) Info(c *gin.Context) {
	resp := infoResponse{Dataset: coco.Info(), Options: h.dataset.Options()}
	if set, err := coco.Resources(resp.Options); err == nil {
		resp.Resources = &set
	}
	RespondOK(c, resp)
}

// Categories lists the category vocabulary in index order.
func (h *Handlers) Categories(c *gin.Context) {
	categories := []coco.Category{}
	if vocab := h.dataset.Vocabulary(); vocab != nil {
		categories = vocab.Categories()
	}
	RespondOK(c, categories)
}

type samplesQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=0"`
	Format string `form:"format" binding:"omitempty,oneof=ndjson sse"`
}

// Samples streams one pass, one sample per NDJSON line or per "sample" event
// when the client asks for text/event-stream. Errors before the first sample
// produce an error response; later errors end the stream with a final error
// line or event.
func (h *Handlers) Samples(c *gin.Context) {
	if h.passes == nil {
		h.stream(c)
		return
	}
	err := h.passes.Execute(c.Request.Context(), func() error {
		h.stream(c)
		return nil
	})
	if err != nil {
		RespondWithError(c, err)
	}
}

func (h *Handlers) stream(c *gin.Context) {
	var q samplesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondWithError(c, apperrors.InvalidInput("query", err.Error()))
		return
	}
	limit := q.Limit
	if h.maxLimit > 0 && (limit == 0 || limit > h.maxLimit) {
		limit = h.maxLimit
	}

	images, meta, err := h.source.Open()
	if err != nil {
		RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	it := h.dataset.Samples(images, meta).Iter(ctx)
	defer it.Close()

	sample, ok, err := it.Next(ctx)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	out, err := h.sampleWriter(c, q.Format)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	for n := 0; ok; {
		if err := out.Sample(sample); err != nil {
			h.log.WithContext(ctx).Warn("Sample stream aborted", logger.ErrorFields("encode", err))
			return
		}
		if n++; limit > 0 && n >= limit {
			break
		}
		if sample, ok, err = it.Next(ctx); err != nil {
			h.streamError(ctx, out, err)
			return
		}
	}
	_ = out.End()
}

func (h *Handlers) streamError(ctx context.Context, out sampleWriter, err error) {
	h.log.WithContext(ctx).Error("Sample stream failed", logger.ErrorFields("samples", err))
	if ctx.Err() != nil {
		return
	}
	_ = out.Error(apperrors.Wrap(err).ToResponse())
}

func (h *Handlers) sampleWriter(c *gin.Context, format string) (sampleWriter, error) {
	if format == "sse" || (format == "" && strings.Contains(c.GetHeader("Accept"), sse.ContentType)) {
		w, err := sse.NewWriter(c.Writer)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if err := w.DisableWriteDeadline(); err != nil {
			h.log.WithContext(c.Request.Context()).Debug("Write deadline kept for event stream", logger.ErrorFields("sse", err))
		}
		c.Status(http.StatusOK)
		return &eventWriter{w: w}, nil
	}
	c.Header("Content-Type", ContentTypeNDJSON)
	c.Status(http.StatusOK)
	return &ndjsonWriter{enc: json.NewEncoder(c.Writer), flush: c.Writer.Flush}, nil
}

// sampleWriter frames one pass on the response.
type sampleWriter interface {
	Sample(v any) error
	Error(v any) error
	End() error
}

type ndjsonWriter struct {
	enc   *json.Encoder
	flush func()
}

func (w *ndjsonWriter) Sample(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	w.flush()
	return nil
}

func (w *ndjsonWriter) Error(v any) error { return w.enc.Encode(v) }

func (w *ndjsonWriter) End() error { return nil }

type eventWriter struct {
	w       *sse.Writer
	samples int
}

func (w *eventWriter) Sample(v any) error {
	if err := w.w.Send(sse.EventTypeSample, v); err != nil {
		return err
	}
	w.samples++
	return nil
}

func (w *eventWriter) Error(v any) error { return w.w.Send(sse.EventTypeError, v) }

func (w *eventWriter) End() error {
	return w.w.Send(sse.EventTypeEnd, sse.End{Count: w.samples})
}
