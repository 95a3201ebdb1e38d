package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xDTC/gqlxplorer/internal/report"
)

// RunRepo records batch runs and their per-operation results.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new run repository.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// RunRecord is one stored run.
type RunRecord struct {
	ID         string
	Target     string
	SchemaID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    report.Summary
}

// Save stores the report and its results in one transaction and returns
// the run id. schemaID may be empty.
func (r *RunRepo) Save(rep *report.Report, schemaID string) (string, error) {
	id := uuid.NewString()

	tx, err := r.db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	s := rep.Summary
	_, err = tx.Exec(
		`INSERT INTO runs (id, target, schema_id, started_at, finished_at,
		  query_total, query_attempted, query_responded,
		  mutation_total, mutation_attempted, mutation_responded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rep.Target, nullString(schemaID), rep.StartedAt, rep.FinishedAt,
		s.Queries.Total, s.Queries.Attempted, s.Queries.Responded,
		s.Mutations.Total, s.Mutations.Attempted, s.Mutations.Responded,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO results (run_id, seq, kind, name, status_code, response_json, error, risk)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, group := range [][]report.Result{rep.Queries, rep.Mutations} {
		for _, res := range group {
			var status sql.NullInt64
			if res.StatusCode != nil {
				status = sql.NullInt64{Int64: int64(*res.StatusCode), Valid: true}
			}
			var body sql.NullString
			if res.Response != nil {
				data, err := json.Marshal(res.Response)
				if err != nil {
					return "", fmt.Errorf("marshal response %s: %w", res.Name, err)
				}
				body = sql.NullString{String: string(data), Valid: true}
			}
			if _, err := stmt.Exec(id, seq, res.Kind, res.Name, status, body,
				nullString(res.Error), nullString(res.Risk)); err != nil {
				return "", fmt.Errorf("insert result %s: %w", res.Name, err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// List returns stored runs, newest first. Limit 0 = no limit.
func (r *RunRepo) List(limit int) ([]RunRecord, error) {
	q := `SELECT id, target, schema_id, started_at, finished_at,
	  query_total, query_attempted, query_responded,
	  mutation_total, mutation_attempted, mutation_responded
	 FROM runs ORDER BY started_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.conn.Query(q)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var schemaID sql.NullString
		s := &rec.Summary
		if err := rows.Scan(
			&rec.ID, &rec.Target, &schemaID, &rec.StartedAt, &rec.FinishedAt,
			&s.Queries.Total, &s.Queries.Attempted, &s.Queries.Responded,
			&s.Mutations.Total, &s.Mutations.Attempted, &s.Mutations.Responded,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.SchemaID = schemaID.String
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Results returns the results of a run in execution order. Responses are
// returned as raw JSON.
func (r *RunRepo) Results(runID string) ([]report.Result, error) {
	rows, err := r.db.conn.Query(
		`SELECT kind, name, status_code, response_json, error, risk
		 FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []report.Result
	for rows.Next() {
		var res report.Result
		var status sql.NullInt64
		var body, errText, risk sql.NullString
		if err := rows.Scan(&res.Kind, &res.Name, &status, &body, &errText, &risk); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if status.Valid {
			code := int(status.Int64)
			res.StatusCode = &code
		}
		if body.Valid {
			res.Response = json.RawMessage(body.String)
		}
		res.Error = errText.String
		res.Risk = risk.String
		results = append(results, res)
	}
	return results, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
