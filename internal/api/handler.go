// Package api exposes JSM runs over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"gojsm/app"
	"gojsm/domain/core"
	"gojsm/domain/dataset"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/config"
	"gojsm/internal/engine"
	"gojsm/internal/errors"
	"gojsm/internal/profiling"
	"gojsm/internal/report"
	"gojsm/ports"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RunParams override the configured engine defaults for one run. They are
// read from the query string, multipart form fields or the JSON body.
type RunParams struct {
	Method             *string `form:"method" json:"method,omitempty"`
	ExtThreshold       *int    `form:"ext_threshold" json:"ext_threshold,omitempty"`
	IntThreshold       *int    `form:"int_threshold" json:"int_threshold,omitempty"`
	BanCounterexamples *bool   `form:"ban_counterexamples" json:"ban_counterexamples,omitempty"`
	Steps              *int    `form:"steps" json:"steps,omitempty"`
	Persist            *bool   `form:"persist" json:"persist,omitempty"`
	Trace              bool    `form:"trace" json:"trace,omitempty"`
}

// CreateRunRequest is the JSON form of POST /api/runs: either an inline
// dataset document or a URL to download one from.
type CreateRunRequest struct {
	RunParams
	Dataset json.RawMessage `json:"dataset,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// RunResponse carries a run and its statistical profile.
type RunResponse struct {
	Run     *run.Run            `json:"run"`
	Profile *profiling.Profile  `json:"profile,omitempty"`
	Trace   []engine.TraceEvent `json:"trace,omitempty"`
}

// Handler serves the run endpoints.
type Handler struct {
	svc      *app.JSMService
	defaults config.JSMConfig
	logger   *internal.Logger
}

// NewHandler creates a handler; defaults fill any parameter a request omits.
func NewHandler(svc *app.JSMService, defaults config.JSMConfig, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{svc: svc, defaults: defaults, logger: logger.With("API")}
}

// RegisterRoutes mounts the run endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	runs := r.Group("/api/runs")
	runs.POST("", h.CreateRun)
	runs.GET("", h.ListRuns)
	runs.GET("/:id", h.GetRun)
	r.GET("/healthz", h.Health)
}

// CreateRun handles POST /api/runs. A multipart request carries the dataset
// file in the "file" field; a JSON request carries CreateRunRequest.
func (h *Handler) CreateRun(c *gin.Context) {
	ctx := c.Request.Context()

	var params RunParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.fail(c, errors.InvalidInputf(err, "invalid query parameters"))
		return
	}

	var (
		ds  *dataset.Dataset
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindWith(&params, binding.FormMultipart); err != nil {
			h.fail(c, errors.InvalidInputf(err, "invalid form fields"))
			return
		}
		header, ferr := c.FormFile("file")
		if ferr != nil {
			h.fail(c, errors.InvalidInputf(ferr, "multipart request needs a \"file\" field"))
			return
		}
		f, ferr := header.Open()
		if ferr != nil {
			h.fail(c, errors.InvalidInputf(ferr, "cannot open upload"))
			return
		}
		defer f.Close()
		ds, err = h.svc.LoadUpload(ctx, header.Filename, f)
	} else {
		var body CreateRunRequest
		body.RunParams = params
		if err := c.ShouldBindJSON(&body); err != nil {
			h.fail(c, errors.InvalidInputf(err, "invalid request body"))
			return
		}
		params = body.RunParams
		switch {
		case len(body.Dataset) > 0:
			ds, err = h.svc.LoadUpload(ctx, "request.json", bytes.NewReader(body.Dataset))
		case body.URL != "":
			ds, err = h.svc.LoadURL(ctx, body.URL)
		default:
			err = errors.InvalidInput("request needs a dataset or a url")
		}
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	req := h.runRequest(params)
	var trace []engine.TraceEvent
	if params.Trace {
		req.Trace = func(ev engine.TraceEvent) { trace = append(trace, ev) }
	}

	rn, err := h.svc.RunDataset(ctx, ds, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	prof, err := profiling.ProfileRun(rn)
	if err != nil {
		h.logger.Warn("profiling run %s failed: %v", rn.RunID, err)
	}
	c.JSON(http.StatusCreated, RunResponse{Run: rn, Profile: prof, Trace: trace})
}

func (h *Handler) runRequest(p RunParams) app.RunRequest {
	cfg := h.defaults
	if p.Method != nil {
		cfg.Method = *p.Method
	}
	if p.ExtThreshold != nil {
		cfg.ExtThreshold = *p.ExtThreshold
	}
	if p.IntThreshold != nil {
		cfg.IntThreshold = *p.IntThreshold
	}
	if p.BanCounterexamples != nil {
		cfg.BanCounterexamples = *p.BanCounterexamples
	}
	if p.Steps != nil {
		cfg.MaxSteps = *p.Steps
	}
	persist := h.svc.HasRepository()
	if p.Persist != nil {
		persist = *p.Persist
	}
	return app.RunRequest{Options: cfg.Options(), Steps: cfg.MaxSteps, Persist: persist}
}

type listQuery struct {
	Fingerprint string `form:"fingerprint"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, errors.InvalidInputf(err, "invalid query parameters"))
		return
	}
	if q.Limit < 0 || q.Offset < 0 {
		h.fail(c, errors.InvalidInput("limit and offset must be non-negative"))
		return
	}

	runs, err := h.svc.ListRuns(c.Request.Context(), ports.RunFilters{
		Fingerprint: core.Hash(q.Fingerprint),
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /api/runs/:id. With ?format=markdown the report is
// returned as text/markdown.
func (h *Handler) GetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInputf(err, "invalid run id"))
		return
	}
	rn, err := h.svc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	prof, err := profiling.ProfileRun(rn)
	if err != nil {
		h.logger.Warn("profiling run %s failed: %v", rn.RunID, err)
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(rn, prof)))
		return
	}
	c.JSON(http.StatusOK, RunResponse{Run: rn, Profile: prof})
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": h.svc.HasRepository()})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: errors.GetCode(err)})
}
