package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/errors"
	"gojsm/ports"
)

type stubRuns struct {
	runs map[core.RunID]*run.Run
	err  error
}

func (s stubRuns) ListRuns(context.Context, ports.RunFilters) ([]run.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []run.Summary
	for _, r := range s.runs {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (s stubRuns) GetRun(_ context.Context, id core.RunID) (*run.Run, error) {
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return r, nil
}

func storedRun() *run.Run {
	rn := &run.Run{
		Manifest: run.Manifest{
			RunID:       "run-1",
			DatasetName: "<b>toy</b>",
			Method:      "norris",
			CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Status:     run.StatusCompleted,
		Attributes: []string{"a", "b"},
		FinalStep:  2,
		Complete:   true,
		Causes: []run.CauseRecord{
			{Label: jsm.Positive, Intent: "10", Attributes: []string{"a"}, Extent: []jsm.ExampleID{1, 2}, Step: 2},
		},
		Results: []jsm.ResultRow{
			{ID: 1, Values: []bool{true, false}, Label: jsm.Positive},
			{ID: 2, Values: []bool{true, true}, Label: jsm.Positive},
		},
	}
	rn.Seal([]string{"a,b"})
	return rn
}

func newTestApp(t *testing.T, src RunSource) *App {
	t.Helper()
	app, err := NewApp(src, Config{BasePath: "/ui/"}, internal.NewNopLogger())
	require.NoError(t, err)
	return app
}

func get(app *App, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, stubRuns{runs: map[core.RunID]*run.Run{"run-1": storedRun()}})

	w := get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<a href="/ui/runs/run-1">run-1</a>`)
	assert.Contains(t, body, "2024-05-01 12:00:00")
	assert.NotContains(t, body, "<b>toy</b>", "dataset names are escaped")
}

func TestRunPage(t *testing.T) {
	app := newTestApp(t, stubRuns{runs: map[core.RunID]*run.Run{"run-1": storedRun()}})

	w := get(app, "/runs/run-1")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "Positive causes (1)")
	assert.NotContains(t, body, "<b>toy</b>")

	md := get(app, "/runs/run-1/report.md")
	require.Equal(t, http.StatusOK, md.Code)
	assert.True(t, strings.HasPrefix(md.Body.String(), "# JSM run run-1"))

	assert.Equal(t, http.StatusNotFound, get(app, "/runs/missing").Code)
}

func TestUnavailableStorage(t *testing.T) {
	app := newTestApp(t, stubRuns{err: errors.Unavailable("run storage is not configured")})

	w := get(app, "/")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not configured")
}

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("# Title\n\n| a | b |\n|---|---|\n| 1 | <script>x</script> |\n"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<td>1</td>")
	assert.NotContains(t, out, "<script>")
}
