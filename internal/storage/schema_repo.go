package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// SchemaRepo records the schemas runs were derived from.
type SchemaRepo struct {
	db *DB
}

// NewSchemaRepo creates a new schema repository.
func NewSchemaRepo(db *DB) *SchemaRepo {
	return &SchemaRepo{db: db}
}

// SchemaRecord is a stored schema without its raw JSON.
type SchemaRecord struct {
	ID            string
	Target        string
	Source        schema.SchemaSource
	QueryCount    int
	MutationCount int
	CreatedAt     time.Time
}

// Save stores the bare __schema JSON for target and returns the new id.
func (r *SchemaRepo) Save(target string, s *schema.Schema, raw json.RawMessage) (string, error) {
	queries, mutations := schema.ExtractOperations(s)
	id := uuid.NewString()

	_, err := r.db.conn.Exec(
		`INSERT INTO schemas (id, target, source, raw_json, query_count, mutation_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, target, string(s.Source), string(raw), len(queries), len(mutations), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert schema: %w", err)
	}
	return id, nil
}

// Get returns the record and raw JSON of a stored schema.
func (r *SchemaRepo) Get(id string) (*SchemaRecord, json.RawMessage, error) {
	var rec SchemaRecord
	var source, raw string
	err := r.db.conn.QueryRow(
		`SELECT id, target, source, raw_json, query_count, mutation_count, created_at
		 FROM schemas WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Target, &source, &raw, &rec.QueryCount, &rec.MutationCount, &rec.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("query schema %s: %w", id, err)
	}
	rec.Source = schema.SchemaSource(source)
	return &rec, json.RawMessage(raw), nil
}

// Latest returns the most recently stored schema for target. It returns a
// nil record and no error when none exists.
func (r *SchemaRepo) Latest(target string) (*SchemaRecord, json.RawMessage, error) {
	var id string
	err := r.db.conn.QueryRow(
		"SELECT id FROM schemas WHERE target = ? ORDER BY created_at DESC LIMIT 1", target,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query latest schema: %w", err)
	}
	return r.Get(id)
}
