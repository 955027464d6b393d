// Package ui serves a small HTML viewer for stored runs.
package ui

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gojsm/domain/core"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/errors"
	"gojsm/internal/profiling"
	"gojsm/internal/report"
	"gojsm/ports"
)

//go:embed templates/*.html
var templateFiles embed.FS

// RunSource is the read side of the run store.
type RunSource interface {
	ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error)
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
}

// Config holds UI application configuration
type Config struct {
	// BasePath is the prefix the app is mounted under, used in links.
	BasePath string
	// PageSize bounds the run listing.
	PageSize int
}

// App represents the UI application
type App struct {
	router    *chi.Mux
	runs      RunSource
	templates *template.Template
	config    Config
	logger    *internal.Logger
}

// NewApp creates the UI application.
func NewApp(runs RunSource, config Config, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	config.BasePath = strings.TrimSuffix(config.BasePath, "/")

	templates, err := template.New("").ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		runs:      runs,
		templates: templates,
		config:    config,
		logger:    logger.With("UI"),
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRun)
	a.router.Get("/runs/{id}/report.md", a.handleRunMarkdown)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := a.runs.ListRuns(r.Context(), ports.RunFilters{Limit: a.config.PageSize})
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "runs", map[string]interface{}{
		"Title": "JSM runs",
		"Base":  a.config.BasePath,
		"Runs":  runs,
	})
}

func (a *App) handleRun(w http.ResponseWriter, r *http.Request) {
	rn, md, err := a.loadReport(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "run", map[string]interface{}{
		"Title":  "JSM run " + rn.RunID.String(),
		"Base":   a.config.BasePath,
		"ID":     rn.RunID,
		"Report": template.HTML(RenderMarkdown(md)),
	})
}

func (a *App) handleRunMarkdown(w http.ResponseWriter, r *http.Request) {
	_, md, err := a.loadReport(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(md))
}

func (a *App) loadReport(r *http.Request) (*run.Run, string, error) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, "", errors.InvalidInputf(err, "invalid run id")
	}
	rn, err := a.runs.GetRun(r.Context(), id)
	if err != nil {
		return nil, "", err
	}
	prof, err := profiling.ProfileRun(rn)
	if err != nil {
		a.logger.Warn("profiling run %s failed: %v", rn.RunID, err)
	}
	return rn, report.Markdown(rn, prof), nil
}

// RenderMarkdown converts a report to HTML. Raw HTML in the source is
// dropped, so attribute names cannot inject markup.
func RenderMarkdown(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return markdown.ToHTML([]byte(md), p, renderer)
}

func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (a *App) renderError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%v", err)
	}
	http.Error(w, err.Error(), status)
}
