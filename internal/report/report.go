// Package report holds the records produced by a batch run and writes them
// to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Result is the outcome of one synthetic operation.
type Result struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	// StatusCode is nil when no response was received.
	StatusCode *int `json:"status_code"`
	// Response is the decoded JSON body, or the truncated raw text when the
	// body was not JSON.
	Response any    `json:"response"`
	Error    string `json:"error,omitempty"`
	Risk     string `json:"risk,omitempty"`
}

// Responded reports whether the target answered at all.
func (r Result) Responded() bool {
	return r.StatusCode != nil
}

// GroupSummary counts one operation group.
type GroupSummary struct {
	Total     int `json:"total"`
	Attempted int `json:"attempted"`
	Responded int `json:"responded"`
}

// Summary counts both operation groups.
type Summary struct {
	Queries   GroupSummary `json:"queries"`
	Mutations GroupSummary `json:"mutations"`
}

// Report collects the results of a run against a single target.
type Report struct {
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Queries    []Result  `json:"queries"`
	Mutations  []Result  `json:"mutations"`
	Summary    Summary   `json:"summary"`
}

// New starts an empty report for target with the discovered totals.
func New(target string, totalQueries, totalMutations int) *Report {
	return &Report{
		Target:    target,
		StartedAt: time.Now().UTC(),
		Queries:   []Result{},
		Mutations: []Result{},
		Summary: Summary{
			Queries:   GroupSummary{Total: totalQueries},
			Mutations: GroupSummary{Total: totalMutations},
		},
	}
}

// AddQuery appends a query result and updates the summary.
func (r *Report) AddQuery(res Result) {
	r.Queries = append(r.Queries, res)
	r.Summary.Queries.add(res)
}

// AddMutation appends a mutation result and updates the summary.
func (r *Report) AddMutation(res Result) {
	r.Mutations = append(r.Mutations, res)
	r.Summary.Mutations.add(res)
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

func (g *GroupSummary) add(res Result) {
	g.Attempted++
	if res.Responded() {
		g.Responded++
	}
}

// WriteJSON writes the report to path as indented JSON.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
