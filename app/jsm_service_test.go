package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gojsm/domain/core"
	"gojsm/domain/dataset"
	"gojsm/domain/jsm"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/closure"
	"gojsm/internal/engine"
	apperrors "gojsm/internal/errors"
	"gojsm/internal/induction"
	"gojsm/ports"
)

// MockRunRepository mocks the RunRepository interface.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveRun(ctx context.Context, r *run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]run.Summary), args.Error(1)
}

func lenientRequest() RunRequest {
	return RunRequest{
		Options: engine.Options{
			Method:     closure.MethodNorris,
			Thresholds: induction.Thresholds{Extensional: 1, Intensional: 1},
		},
	}
}

func toyDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name:       "toy",
		Source:     dataset.SourceJSON,
		Attributes: []string{"a", "b", "c", "d"},
		Rows: []dataset.Row{
			{ID: 1, Values: []bool{true, true, false, false}, Label: jsm.Positive},
			{ID: 2, Values: []bool{true, false, true, false}, Label: jsm.Positive},
			{ID: 3, Values: []bool{false, false, false, true}, Label: jsm.Negative},
			{ID: 4, Values: []bool{true, true, true, false}},
		},
	}
}

func newTestService(repo ports.RunRepository) *JSMService {
	return NewJSMService(ServiceDeps{Repo: repo, Logger: internal.NewNopLogger()})
}

func TestRunDataset(t *testing.T) {
	svc := newTestService(nil)

	var steps []int
	req := lenientRequest()
	req.Trace = func(ev engine.TraceEvent) { steps = append(steps, ev.Step) }

	rn, err := svc.RunDataset(context.Background(), toyDataset(), req)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, steps)
	assert.Equal(t, run.StatusCompleted, rn.Status)
	assert.Equal(t, "norris", rn.Method)
	assert.Equal(t, 2, rn.Rounds)
	assert.Equal(t, 2, rn.FinalStep)
	assert.Equal(t, 1, rn.Migrations)
	assert.True(t, rn.FixedPoint)
	assert.True(t, rn.Complete)
	assert.Empty(t, rn.LostPositive)
	assert.NotNil(t, rn.LostNegative)
	assert.NoError(t, rn.Validate())

	var promoted *jsm.ResultRow
	for i := range rn.Results {
		if rn.Results[i].ID == 4 {
			promoted = &rn.Results[i]
		}
	}
	require.NotNil(t, promoted)
	assert.Equal(t, jsm.Positive, promoted.Label)
	assert.Equal(t, 1, promoted.Step)

	intents := map[string]bool{}
	for _, c := range rn.CausesFor(jsm.Positive) {
		intents[c.Intent] = true
	}
	assert.True(t, intents["1000"], "shared attribute a is a positive cause")
}

func TestRunDataset_Fingerprint(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	first, err := svc.RunDataset(ctx, toyDataset(), lenientRequest())
	require.NoError(t, err)
	second, err := svc.RunDataset(ctx, toyDataset(), lenientRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Fingerprint.Fingerprint, second.Fingerprint.Fingerprint)

	req := lenientRequest()
	req.Options.BanCounterexamples = true
	third, err := svc.RunDataset(ctx, toyDataset(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint.DatasetHash, third.Fingerprint.DatasetHash)
	assert.NotEqual(t, first.Fingerprint.Fingerprint, third.Fingerprint.Fingerprint)
}

func TestRunDataset_Errors(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	bad := toyDataset()
	bad.Rows[1].Values = []bool{true}
	_, err := svc.RunDataset(ctx, bad, lenientRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSchemaMismatch))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	req := lenientRequest()
	req.Options.Method = "bogus"
	_, err = svc.RunDataset(ctx, toyDataset(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	req = lenientRequest()
	req.Options.Thresholds.Extensional = -1
	_, err = svc.RunDataset(ctx, toyDataset(), req)
	assert.True(t, errors.Is(err, core.ErrInvalidThreshold))
}

func TestRunDataset_Persist(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("SaveRun", mock.Anything, mock.AnythingOfType("*run.Run")).Return(nil)
	svc := newTestService(repo)

	req := lenientRequest()
	req.Persist = true
	rn, err := svc.RunDataset(context.Background(), toyDataset(), req)
	require.NoError(t, err)

	repo.AssertCalled(t, "SaveRun", mock.Anything, rn)
}

func TestRunDataset_PersistFailure(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	svc := newTestService(repo)

	req := lenientRequest()
	req.Persist = true
	rn, err := svc.RunDataset(context.Background(), toyDataset(), req)
	require.Error(t, err)
	assert.NotNil(t, rn, "the computed run is still returned")
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetCode(err))
}

func TestRunDataset_NoPersistWithoutFlag(t *testing.T) {
	repo := new(MockRunRepository)
	svc := newTestService(repo)

	_, err := svc.RunDataset(context.Background(), toyDataset(), lenientRequest())
	require.NoError(t, err)
	repo.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "toy.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,a,b,c,d,target\n1,1,1,0,0,1\n2,1,0,1,0,1\n3,0,0,0,1,-1\n4,1,1,1,0,\n"), 0o644))
	jsonPath := filepath.Join(dir, "toy.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"attributes":["a","b","c","d"],"examples":[
		{"id":1,"values":[1,1,0,0],"label":1},
		{"id":2,"values":[1,0,1,0],"label":1},
		{"id":3,"values":[0,0,0,1],"label":-1},
		{"id":4,"values":[1,1,1,0],"label":null}]}`), 0o644))

	svc := newTestService(nil)
	ctx := context.Background()

	fromCSV, err := svc.RunFile(ctx, csvPath, lenientRequest())
	require.NoError(t, err)
	fromJSON, err := svc.RunFile(ctx, jsonPath, lenientRequest())
	require.NoError(t, err)

	assert.Equal(t, "csv", fromCSV.Source)
	assert.Equal(t, "toy", fromCSV.DatasetName)
	assert.Equal(t, fromCSV.Results, fromJSON.Results)
	assert.Equal(t, fromCSV.Causes, fromJSON.Causes)

	_, err = svc.RunFile(ctx, filepath.Join(dir, "toy.txt"), lenientRequest())
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestQueriesWithoutRepository(t *testing.T) {
	svc := newTestService(nil)
	assert.False(t, svc.HasRepository())

	_, err := svc.GetRun(context.Background(), "x")
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.GetCode(err))
	_, err = svc.ListRuns(context.Background(), ports.RunFilters{})
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.GetCode(err))
}

func TestGetRun(t *testing.T) {
	repo := new(MockRunRepository)
	stored := &run.Run{Manifest: run.Manifest{RunID: "r1"}}
	repo.On("GetRun", mock.Anything, core.RunID("r1")).Return(stored, nil)
	repo.On("GetRun", mock.Anything, core.RunID("missing")).
		Return(nil, core.NewNotFoundError("run", "missing"))
	repo.On("ListRuns", mock.Anything, ports.RunFilters{Limit: 5}).
		Return([]run.Summary{{ID: "r1"}}, nil)
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Same(t, stored, got)

	_, err = svc.GetRun(ctx, "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	list, err := svc.ListRuns(ctx, ports.RunFilters{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	repo.AssertExpectations(t)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/toy.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"remote","attributes":["a"],"examples":[{"id":7,"values":[true],"label":1}]}`))
	}))
	defer srv.Close()

	svc := newTestService(nil)
	ctx := context.Background()

	ds, err := svc.LoadURL(ctx, srv.URL+"/toy.json")
	require.NoError(t, err)
	assert.Equal(t, "remote", ds.Name)
	assert.Equal(t, dataset.SourceUpload, ds.Source)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, jsm.ExampleID(7), ds.Rows[0].ID)

	_, err = svc.LoadURL(ctx, srv.URL+"/missing.json")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
