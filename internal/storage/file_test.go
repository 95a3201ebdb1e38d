package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

func TestLoadSchemaFileShapes(t *testing.T) {
	fixture, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(fixture, &wrapped))
	var inner struct {
		Schema json.RawMessage `json:"__schema"`
	}
	require.NoError(t, json.Unmarshal(wrapped.Data, &inner))

	dir := t.TempDir()
	shapes := map[string][]byte{
		"response.json": fixture,
		"root.json":     wrapped.Data,
		"bare.json":     inner.Schema,
	}
	for name, body := range shapes {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, body, 0o600))

		s, raw, err := LoadSchemaFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, schema.SourceFile, s.Source, name)
		assert.Equal(t, "Query", s.QueryType, name)
		assert.JSONEq(t, string(inner.Schema), string(raw), name)
	}
}

func TestLoadSchemaFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadSchemaFile(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, _, err = LoadSchemaFile(bad)
	assert.ErrorIs(t, err, ErrSchemaMalformed)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"hello":"world"}`), 0o600))
	_, _, err = LoadSchemaFile(empty)
	assert.ErrorIs(t, err, ErrSchemaMalformed)
}

func TestSaveSchemaFileRoundTrip(t *testing.T) {
	_, raw, err := LoadSchemaFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, SaveSchemaFile(path, raw))

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(saved), "{\n  \""))
	assert.NotContains(t, string(saved), `"data"`)

	s, _, err := LoadSchemaFile(path)
	require.NoError(t, err)
	queries, mutations := schema.ExtractOperations(s)
	assert.Len(t, queries, 2)
	assert.Len(t, mutations, 1)
}

func TestSaveSchemaFileRejectsInvalid(t *testing.T) {
	err := SaveSchemaFile(filepath.Join(t.TempDir(), "x.json"), json.RawMessage("{"))
	assert.Error(t, err)
}
