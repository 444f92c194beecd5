package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"convsim/app"
	"convsim/internal"
	apperrors "convsim/internal/errors"

	"github.com/gin-gonic/gin"
)

var contentTypes = map[string]string{
	"png":  "image/png",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"html": "text/html; charset=utf-8",
}

// BatchBody is the JSON body of a batch request
type BatchBody struct {
	Requests    []app.AnalysisInput `json:"requests" binding:"required"`
	Parallelism int                 `json:"parallelism"`
}

// BatchItem is one entry of a batch response
type BatchItem struct {
	Index  int                 `json:"index"`
	Report *app.AnalysisReport `json:"report,omitempty"`
	Error  *ErrorBody          `json:"error,omitempty"`
}

// ErrorBody is the JSON error payload
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AnalysisHandler serves analyses over HTTP
type AnalysisHandler struct {
	analysis    *app.AnalysisService
	render      *app.RenderService
	defaults    app.AnalysisRequest
	parallelism int
	logger      *internal.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	analysis *app.AnalysisService,
	render *app.RenderService,
	defaults app.AnalysisRequest,
	parallelism int,
	logger *internal.Logger,
) *AnalysisHandler {
	if logger == nil {
		logger = internal.Nop()
	}
	return &AnalysisHandler{
		analysis:    analysis,
		render:      render,
		defaults:    defaults,
		parallelism: parallelism,
		logger:      logger,
	}
}

// CreateAnalysis runs one analysis. With ?format=png|xlsx|html the rendered
// artifact is returned instead of the JSON report.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var body app.AnalysisInput
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	req, err := body.Resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	format := c.Query("format")
	if format == "" {
		respondJSON(c, report)
		return
	}

	var buf bytes.Buffer
	if err := h.render.Render(c.Request.Context(), report, format, &buf); err != nil {
		respondError(c, err)
		return
	}
	contentType, ok := contentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename=\""+report.SessionID.String()+"."+format+"\"")
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// CreateBatch runs independent analyses with bounded parallelism. Per-item
// failures are reported inline; the request itself fails only on bad input
// or cancellation.
func (h *AnalysisHandler) CreateBatch(c *gin.Context) {
	var body BatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	reqs := make([]app.AnalysisRequest, len(body.Requests))
	for i, b := range body.Requests {
		req, err := b.Resolve(h.defaults)
		if err != nil {
			respondError(c, apperrors.Wrapf(err, "request %d", i))
			return
		}
		reqs[i] = req
	}

	parallelism := body.Parallelism
	if parallelism <= 0 || parallelism > h.parallelism {
		parallelism = h.parallelism
	}

	start := time.Now()
	results, err := h.analysis.AnalyzeBatch(c.Request.Context(), reqs, parallelism)
	if err != nil {
		respondError(c, apperrors.Wrap(err, "batch interrupted"))
		return
	}

	items := make([]BatchItem, len(results))
	for i, r := range results {
		items[i] = BatchItem{Index: r.Index, Report: r.Report}
		if r.Err != nil {
			items[i].Error = &ErrorBody{Error: r.Err.Error(), Code: apperrors.GetCode(r.Err)}
		}
	}
	h.logger.Info("batch of %d analyses finished in %s", len(items), time.Since(start))
	respondJSON(c, gin.H{"results": items})
}

// ListFormats returns the renderer formats
func (h *AnalysisHandler) ListFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.render.Formats()})
}

// GetDefaults returns the request the server uses for omitted fields
func (h *AnalysisHandler) GetDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, h.defaults)
}

// respondJSON encodes v before committing the status, so an encoding
// failure becomes a 500 instead of an empty 200.
func respondJSON(c *gin.Context, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		respondError(c, apperrors.Wrap(err, "failed to encode response"))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// respondError maps err to a status code: caller mistakes are 400 or 422,
// cancellations 503, everything else 500.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := http.StatusInternalServerError
	switch {
	case appErr.Code == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.IsClientError(appErr):
		status = http.StatusUnprocessableEntity
	case c.Request.Context().Err() != nil:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorBody{Error: err.Error(), Code: appErr.Code})
}
