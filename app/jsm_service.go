package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"gojsm/adapters/excel"
	"gojsm/adapters/jsondata"
	"gojsm/domain/core"
	"gojsm/domain/dataset"
	"gojsm/domain/jsm"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/engine"
	"gojsm/internal/errors"
	"gojsm/ports"
)

// JSMService loads datasets, runs the JSM engine over them and keeps the
// finished runs.
type JSMService struct {
	tabular ports.DatasetReader
	json    ports.DatasetReader
	fetcher ports.DatasetFetcher
	repo    ports.RunRepository
	metrics *engine.Metrics
	logger  *internal.Logger
	now     func() time.Time
}

// ServiceDeps wires a JSMService. Repo and Metrics may be nil: without a
// repository runs are not persisted and the run queries are unavailable.
type ServiceDeps struct {
	Tabular ports.DatasetReader
	JSON    ports.DatasetReader
	Fetcher ports.DatasetFetcher
	Repo    ports.RunRepository
	Metrics *engine.Metrics
	Logger  *internal.Logger
}

// RunRequest carries the per-run engine parameters.
type RunRequest struct {
	Options engine.Options
	// Steps bounds the number of rounds; zero runs to a fixed point.
	Steps int
	// Trace receives the partitions after every round.
	Trace engine.TraceFunc
	// Persist stores the run when a repository is configured.
	Persist bool
}

// NewJSMService creates the service. Missing readers get their defaults.
func NewJSMService(deps ServiceDeps) *JSMService {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if deps.Tabular == nil {
		deps.Tabular = excel.NewDataReader(excel.DefaultExcelConfig(), logger)
	}
	if deps.JSON == nil {
		deps.JSON = jsondata.NewReader(jsondata.DefaultConfig(), logger)
	}
	if deps.Fetcher == nil {
		if f, ok := deps.JSON.(ports.DatasetFetcher); ok {
			deps.Fetcher = f
		}
	}
	return &JSMService{
		tabular: deps.Tabular,
		json:    deps.JSON,
		fetcher: deps.Fetcher,
		repo:    deps.Repo,
		metrics: deps.Metrics,
		logger:  logger.With("JSMService"),
		now:     time.Now,
	}
}

// HasRepository reports whether runs can be persisted and queried.
func (s *JSMService) HasRepository() bool {
	return s.repo != nil
}

func (s *JSMService) readerFor(name string) (ports.DatasetReader, error) {
	switch {
	case excel.Supports(name):
		return s.tabular, nil
	case jsondata.Supports(name):
		return s.json, nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported dataset file %q: expected .xlsx, .csv or .json", name))
	}
}

// LoadFile reads a dataset from disk, choosing the reader by extension.
func (s *JSMService) LoadFile(ctx context.Context, path string) (*dataset.Dataset, error) {
	reader, err := s.readerFor(path)
	if err != nil {
		return nil, err
	}
	ds, err := reader.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s", path)
	}
	return ds, nil
}

// LoadUpload reads a dataset from an uploaded stream named name.
func (s *JSMService) LoadUpload(ctx context.Context, name string, in io.Reader) (*dataset.Dataset, error) {
	reader, err := s.readerFor(name)
	if err != nil {
		return nil, err
	}
	ds, err := reader.Read(ctx, name, in)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read upload %s", name)
	}
	ds.Source = dataset.SourceUpload
	return ds, nil
}

// LoadURL downloads a JSON dataset.
func (s *JSMService) LoadURL(ctx context.Context, url string) (*dataset.Dataset, error) {
	if s.fetcher == nil {
		return nil, errors.Unavailable("dataset download is not configured")
	}
	ds, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if core.IsInputError(err) {
			return nil, errors.Wrapf(err, "invalid dataset at %s", url)
		}
		return nil, errors.InvalidInputf(err, "failed to fetch dataset")
	}
	return ds, nil
}

// RunFile loads path and runs the engine over it.
func (s *JSMService) RunFile(ctx context.Context, path string, req RunRequest) (*run.Run, error) {
	ds, err := s.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.RunDataset(ctx, ds, req)
}

// RunDataset fits a fresh model on ds, predicts until a fixed point or the
// step budget, and records the outcome. Input and configuration errors are
// returned before any computation.
func (s *JSMService) RunDataset(ctx context.Context, ds *dataset.Dataset, req RunRequest) (*run.Run, error) {
	start := s.now()

	if err := ds.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid dataset")
	}
	model, err := engine.NewModel(req.Options,
		engine.WithLogger(s.logger),
		engine.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid engine configuration")
	}

	observations, labels := ds.Observations()
	if err := model.Fit(ds.Attributes, observations, labels); err != nil {
		return nil, errors.Wrap(err, "fit failed")
	}

	predicted, err := model.Predict(ctx, engine.PredictOptions{Steps: req.Steps, Trace: req.Trace})
	if err != nil {
		return nil, errors.Wrap(err, "prediction failed")
	}

	opts := model.Options()
	rn := &run.Run{
		Manifest: run.Manifest{
			RunID:              core.NewRunID(),
			DatasetName:        ds.Name,
			Source:             string(ds.Source),
			Method:             opts.Method,
			ExtThreshold:       opts.Thresholds.Extensional,
			IntThreshold:       opts.Thresholds.Intensional,
			BanCounterexamples: opts.BanCounterexamples,
			MaxSteps:           req.Steps,
			CreatedAt:          start.UTC(),
		},
		Status:       run.StatusCompleted,
		Attributes:   append([]string(nil), ds.Attributes...),
		Rounds:       predicted.Rounds,
		FinalStep:    predicted.FinalStep,
		Migrations:   predicted.Migrations,
		FixedPoint:   predicted.FixedPoint,
		Complete:     predicted.Completeness.Complete,
		LostPositive: nonNil(predicted.Completeness.LostPositive.Slice()),
		LostNegative: nonNil(predicted.Completeness.LostNegative.Slice()),
		Causes:       run.NewCauseRecords(model.Causes(), model.Schema()),
		Results:      model.Result(),
	}
	rn.Seal(ds.Records())
	rn.DurationMS = s.now().Sub(start).Milliseconds()

	s.logger.Info("run %s on %q: step %d, %d causes, complete %v",
		rn.RunID, rn.DatasetName, rn.FinalStep, len(rn.Causes), rn.Complete)

	if req.Persist {
		if s.repo == nil {
			s.logger.Warn("run %s not persisted: no database configured", rn.RunID)
			return rn, nil
		}
		if err := s.repo.SaveRun(ctx, rn); err != nil {
			return rn, errors.DatabaseError("failed to persist run", err)
		}
	}
	return rn, nil
}

// GetRun loads a persisted run.
func (s *JSMService) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	if s.repo == nil {
		return nil, errors.Unavailable("run storage is not configured")
	}
	rn, err := s.repo.GetRun(ctx, id)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, errors.WithCode(errors.CodeNotFound, err)
		}
		return nil, errors.DatabaseError("failed to load run", err)
	}
	return rn, nil
}

// ListRuns lists persisted runs, newest first.
func (s *JSMService) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	if s.repo == nil {
		return nil, errors.Unavailable("run storage is not configured")
	}
	summaries, err := s.repo.ListRuns(ctx, filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	return summaries, nil
}

func nonNil(ids []jsm.ExampleID) []jsm.ExampleID {
	if ids == nil {
		return []jsm.ExampleID{}
	}
	return ids
}
