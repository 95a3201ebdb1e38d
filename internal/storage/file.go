package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/0xDTC/gqlxplorer/internal/parser"
	"github.com/0xDTC/gqlxplorer/internal/schema"
)

var (
	// ErrSchemaNotFound is returned when the schema file does not exist.
	ErrSchemaNotFound = errors.New("schema file not found")
	// ErrSchemaMalformed is returned when the file is not JSON or holds no schema.
	ErrSchemaMalformed = errors.New("schema file malformed")
)

// LoadSchemaFile reads a schema saved by SaveSchemaFile or any introspection
// response shape the parser accepts.
func LoadSchemaFile(path string) (*schema.Schema, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, path)
		}
		return nil, nil, fmt.Errorf("read schema file: %w", err)
	}

	s, raw, err := parser.ParseIntrospection(data, schema.SourceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrSchemaMalformed, path, err)
	}
	return s, raw, nil
}

// SaveSchemaFile writes the bare __schema object indented by two spaces.
func SaveSchemaFile(path string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("indent schema: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}
	return nil
}
