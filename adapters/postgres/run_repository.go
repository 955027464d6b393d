package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"gojsm/domain/core"
	"gojsm/domain/jsm"
	"gojsm/domain/run"
	apperrors "gojsm/internal/errors"
	"gojsm/ports"
)

// runRepository implements the RunRepository interface. Queries are written
// with ? placeholders and rebound for the driver, so the same code serves
// PostgreSQL (lib/pq) and SQLite (go-sqlite3).
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

type runRow struct {
	ID                 string    `db:"id"`
	DatasetName        string    `db:"dataset_name"`
	Source             string    `db:"source"`
	Method             string    `db:"method"`
	ExtThreshold       int       `db:"ext_threshold"`
	IntThreshold       int       `db:"int_threshold"`
	BanCounterexamples bool      `db:"ban_counterexamples"`
	MaxSteps           int       `db:"max_steps"`
	Fingerprint        string    `db:"fingerprint"`
	DatasetHash        string    `db:"dataset_hash"`
	CodeVersion        string    `db:"code_version"`
	Status             string    `db:"status"`
	Error              string    `db:"error"`
	Attributes         string    `db:"attributes"`
	Rounds             int       `db:"rounds"`
	FinalStep          int       `db:"final_step"`
	Migrations         int       `db:"migrations"`
	FixedPoint         bool      `db:"fixed_point"`
	Complete           bool      `db:"complete"`
	LostPositive       string    `db:"lost_positive"`
	LostNegative       string    `db:"lost_negative"`
	DurationMS         int64     `db:"duration_ms"`
	CreatedAt          time.Time `db:"created_at"`
}

type causeRow struct {
	Position   int    `db:"position"`
	Label      int8   `db:"label"`
	Intent     string `db:"intent"`
	Attributes string `db:"attributes"`
	Extent     string `db:"extent"`
	Step       int    `db:"step"`
}

type resultRow struct {
	ExampleID int64  `db:"example_id"`
	Vector    string `db:"vector"`
	Label     int8   `db:"label"`
	Step      int    `db:"step"`
}

// SaveRun inserts a run, its causes and its results in one transaction
func (r *runRepository) SaveRun(ctx context.Context, rn *run.Run) error {
	if err := rn.Validate(); err != nil {
		return apperrors.InvalidInputf(err, "refusing to save run")
	}

	row, err := toRunRow(rn)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO jsm_runs (
		id, dataset_name, source, method, ext_threshold, int_threshold, ban_counterexamples,
		max_steps, fingerprint, dataset_hash, code_version, status, error, attributes,
		rounds, final_step, migrations, fixed_point, complete, lost_positive, lost_negative,
		duration_ms, created_at
	) VALUES (
		:id, :dataset_name, :source, :method, :ext_threshold, :int_threshold, :ban_counterexamples,
		:max_steps, :fingerprint, :dataset_hash, :code_version, :status, :error, :attributes,
		:rounds, :final_step, :migrations, :fixed_point, :complete, :lost_positive, :lost_negative,
		:duration_ms, :created_at
	)`, row)
	if err != nil {
		return apperrors.DatabaseError("failed to insert run", err)
	}

	causeStmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO jsm_causes
		(run_id, position, label, intent, attributes, extent, step) VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return apperrors.DatabaseError("failed to prepare cause insert", err)
	}
	defer causeStmt.Close()

	for i, c := range rn.Causes {
		attrs, err := json.Marshal(nonNil(c.Attributes))
		if err != nil {
			return fmt.Errorf("failed to marshal cause attributes: %w", err)
		}
		extent, err := json.Marshal(nonNil(c.Extent))
		if err != nil {
			return fmt.Errorf("failed to marshal cause extent: %w", err)
		}
		if _, err := causeStmt.ExecContext(ctx, row.ID, i, int8(c.Label), c.Intent, string(attrs), string(extent), c.Step); err != nil {
			return apperrors.DatabaseError("failed to insert cause", err)
		}
	}

	resultStmt, err := tx.PreparexContext(ctx, tx.Rebind(`INSERT INTO jsm_results
		(run_id, example_id, position, vector, label, step) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return apperrors.DatabaseError("failed to prepare result insert", err)
	}
	defer resultStmt.Close()

	for i, res := range rn.Results {
		vector := jsm.VectorOf(res.Values).String()
		if _, err := resultStmt.ExecContext(ctx, row.ID, int64(res.ID), i, vector, int8(res.Label), res.Step); err != nil {
			return apperrors.DatabaseError("failed to insert result", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetRun retrieves a run with its causes and results
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT * FROM jsm_runs WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
		}
		return nil, apperrors.DatabaseError("failed to get run", err)
	}

	rn, err := fromRunRow(row)
	if err != nil {
		return nil, err
	}

	var causes []causeRow
	err = r.db.SelectContext(ctx, &causes, r.db.Rebind(`SELECT position, label, intent, attributes, extent, step
		FROM jsm_causes WHERE run_id = ? ORDER BY position`), row.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to get causes", err)
	}
	for _, c := range causes {
		rec := run.CauseRecord{Label: jsm.Label(c.Label), Intent: c.Intent, Step: c.Step}
		if err := json.Unmarshal([]byte(c.Attributes), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cause attributes: %w", err)
		}
		if err := json.Unmarshal([]byte(c.Extent), &rec.Extent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cause extent: %w", err)
		}
		rn.Causes = append(rn.Causes, rec)
	}

	var results []resultRow
	err = r.db.SelectContext(ctx, &results, r.db.Rebind(`SELECT example_id, vector, label, step
		FROM jsm_results WHERE run_id = ? ORDER BY position`), row.ID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to get results", err)
	}
	for _, res := range results {
		v, err := jsm.ParseVector(res.Vector)
		if err != nil {
			return nil, fmt.Errorf("corrupt result vector for example %d: %w", res.ExampleID, err)
		}
		rn.Results = append(rn.Results, jsm.ResultRow{
			ID:     jsm.ExampleID(res.ExampleID),
			Values: v.Bools(),
			Step:   res.Step,
			Label:  jsm.Label(res.Label),
		})
	}

	return rn, nil
}

// ListRuns returns run summaries, newest first
func (r *runRepository) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Summary, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT r.id, r.dataset_name, r.method, r.fingerprint, r.status, r.final_step, r.complete,
		(SELECT COUNT(*) FROM jsm_causes c WHERE c.run_id = r.id) AS cause_count, r.created_at
	FROM jsm_runs r`
	args := []interface{}{}
	if filters.Fingerprint != "" {
		query += ` WHERE r.fingerprint = ?`
		args = append(args, filters.Fingerprint.String())
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	var summaries []run.Summary
	if err := r.db.SelectContext(ctx, &summaries, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list runs", err)
	}
	return summaries, nil
}

func toRunRow(rn *run.Run) (runRow, error) {
	attrs, err := json.Marshal(nonNil(rn.Attributes))
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	lostPos, err := json.Marshal(nonNil(rn.LostPositive))
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal lost positives: %w", err)
	}
	lostNeg, err := json.Marshal(nonNil(rn.LostNegative))
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal lost negatives: %w", err)
	}

	return runRow{
		ID:                 rn.RunID.String(),
		DatasetName:        rn.DatasetName,
		Source:             rn.Source,
		Method:             rn.Method,
		ExtThreshold:       rn.ExtThreshold,
		IntThreshold:       rn.IntThreshold,
		BanCounterexamples: rn.BanCounterexamples,
		MaxSteps:           rn.MaxSteps,
		Fingerprint:        rn.Fingerprint.Fingerprint.String(),
		DatasetHash:        rn.Fingerprint.DatasetHash.String(),
		CodeVersion:        rn.Fingerprint.CodeVersion,
		Status:             string(rn.Status),
		Error:              rn.Error,
		Attributes:         string(attrs),
		Rounds:             rn.Rounds,
		FinalStep:          rn.FinalStep,
		Migrations:         rn.Migrations,
		FixedPoint:         rn.FixedPoint,
		Complete:           rn.Complete,
		LostPositive:       string(lostPos),
		LostNegative:       string(lostNeg),
		DurationMS:         rn.DurationMS,
		CreatedAt:          rn.CreatedAt.UTC(),
	}, nil
}

func fromRunRow(row runRow) (*run.Run, error) {
	rn := &run.Run{
		Manifest: run.Manifest{
			RunID:              core.RunID(row.ID),
			DatasetName:        row.DatasetName,
			Source:             row.Source,
			Method:             row.Method,
			ExtThreshold:       row.ExtThreshold,
			IntThreshold:       row.IntThreshold,
			BanCounterexamples: row.BanCounterexamples,
			MaxSteps:           row.MaxSteps,
			Fingerprint: run.RunFingerprint{
				DatasetHash: core.Hash(row.DatasetHash),
				CodeVersion: row.CodeVersion,
				Fingerprint: core.Hash(row.Fingerprint),
			},
			CreatedAt: row.CreatedAt,
		},
		Status:     run.Status(row.Status),
		Error:      row.Error,
		Rounds:     row.Rounds,
		FinalStep:  row.FinalStep,
		Migrations: row.Migrations,
		FixedPoint: row.FixedPoint,
		Complete:   row.Complete,
		DurationMS: row.DurationMS,
	}
	if err := json.Unmarshal([]byte(row.Attributes), &rn.Attributes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	if err := json.Unmarshal([]byte(row.LostPositive), &rn.LostPositive); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lost positives: %w", err)
	}
	if err := json.Unmarshal([]byte(row.LostNegative), &rn.LostNegative); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lost negatives: %w", err)
	}
	return rn, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
