package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/console"
	"github.com/0xDTC/gqlxplorer/internal/introspection"
	"github.com/0xDTC/gqlxplorer/internal/storage"
)

type stubTransport struct {
	respond func(p client.Payload) (*client.Response, error)
	sent    []client.Payload
}

func (s *stubTransport) Do(_ context.Context, p client.Payload) (*client.Response, error) {
	s.sent = append(s.sent, p)
	return s.respond(p)
}

func reply(status int, body string) (*client.Response, error) {
	return &client.Response{StatusCode: status, Body: []byte(body)}, nil
}

func deps(t *stubTransport, out *bytes.Buffer) Deps {
	return Deps{Printer: console.NewColorPrinter(out, true), Transport: t}
}

const pingSchema = `{
  "queryType": {"name": "Query"},
  "mutationType": null,
  "types": [
    {"kind": "OBJECT", "name": "Query", "fields": [
      {"name": "ping", "args": [], "type": {"kind": "SCALAR", "name": "String"}}
    ]}
  ]
}`

func TestRunIntrospectionDisabled(t *testing.T) {
	tr := &stubTransport{respond: func(client.Payload) (*client.Response, error) {
		return reply(200, `{"errors":[{"message":"introspection disabled"}]}`)
	}}
	var out bytes.Buffer

	err := Run(context.Background(), Options{URL: "http://target/graphql", Execute: true}, deps(tr, &out))

	var unavailable *SchemaUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, ErrIntrospectionDisabled)
	assert.NotZero(t, ExitCode(err))

	require.Len(t, tr.sent, 1)
	assert.Equal(t, introspection.CheckQuery, tr.sent[0].Query)
	assert.Contains(t, out.String(), "Introspection is DISABLED")
	assert.Contains(t, out.String(), "introspection disabled")
	assert.NotContains(t, out.String(), "Executing")
}

func TestRunSchemaFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(pingSchema), 0o600))
	outPath := filepath.Join(dir, "results.json")

	tr := &stubTransport{respond: func(client.Payload) (*client.Response, error) {
		return reply(200, `{"data":{}}`)
	}}
	var out bytes.Buffer

	err := Run(context.Background(), Options{
		URL:        "https://target/graphql",
		Execute:    true,
		SchemaFile: schemaPath,
		SchemaOut:  filepath.Join(dir, "ignored.json"),
		Output:     outPath,
	}, deps(tr, &out))
	require.NoError(t, err)
	assert.Zero(t, ExitCode(err))

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "query Operation {\n  ping\n}", tr.sent[0].Query)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.json"))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var results struct {
		Queries   []map[string]any `json:"queries"`
		Mutations []map[string]any `json:"mutations"`
	}
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results.Queries, 1)
	assert.Empty(t, results.Mutations)
	assert.Equal(t, "ping", results.Queries[0]["name"])
	assert.Equal(t, float64(200), results.Queries[0]["status_code"])

	assert.Contains(t, out.String(), "Queries executed: 1/1")
	assert.Contains(t, out.String(), "Mutations executed: 0/0")
}

func TestRunIntrospectAndSave(t *testing.T) {
	fixture, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	tr := &stubTransport{respond: func(p client.Payload) (*client.Response, error) {
		if p.Query == introspection.CheckQuery {
			return reply(200, `{"data":{"__schema":{"queryType":{"name":"Query"}}}}`)
		}
		return reply(200, string(fixture))
	}}
	var out bytes.Buffer
	schemaOut := filepath.Join(t.TempDir(), "schema.json")

	err = Run(context.Background(), Options{URL: "http://target/graphql", SchemaOut: schemaOut}, deps(tr, &out))
	require.NoError(t, err)

	assert.Len(t, tr.sent, 2)
	assert.Contains(t, out.String(), "Introspection is ENABLED!")
	assert.NotContains(t, out.String(), "Use -s to save schema")

	s, _, err := storage.LoadSchemaFile(schemaOut)
	require.NoError(t, err)
	assert.Equal(t, "Mutation", s.MutationType)
}

func TestRunHintWithoutFlags(t *testing.T) {
	fixture, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	tr := &stubTransport{respond: func(p client.Payload) (*client.Response, error) {
		return reply(200, string(fixture))
	}}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), Options{URL: "http://target/graphql"}, deps(tr, &out)))
	assert.Contains(t, out.String(), "Use -s to save schema and/or -q [schema_file]")
	assert.Len(t, tr.sent, 2)
}

func TestRunRecordsHistory(t *testing.T) {
	fixture, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	tr := &stubTransport{respond: func(p client.Payload) (*client.Response, error) {
		if strings.Contains(p.Query, "__schema") {
			return reply(200, string(fixture))
		}
		return reply(403, `{"errors":[{"message":"forbidden"}]}`)
	}}
	var out bytes.Buffer
	dbPath := filepath.Join(t.TempDir(), "history.db")

	err = Run(context.Background(), Options{URL: "http://target/graphql", Execute: true, DB: dbPath}, deps(tr, &out))
	require.NoError(t, err)
	assert.Len(t, tr.sent, 5)
	assert.Contains(t, out.String(), "Risky mutation")

	db, err := storage.New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	runs, err := storage.NewRunRepo(db).List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].SchemaID)
	assert.Equal(t, 2, runs[0].Summary.Queries.Responded)
	assert.Equal(t, 1, runs[0].Summary.Mutations.Attempted)

	results, err := storage.NewRunRepo(db).Results(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "deleteUser", results[2].Name)
	assert.NotEmpty(t, results[2].Risk)
}

func TestRunZeroOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"queryType":{"name":"Query"},"types":[{"kind":"OBJECT","name":"Query","fields":[]}]}`), 0o600))

	tr := &stubTransport{}
	var out bytes.Buffer
	err := Run(context.Background(), Options{URL: "http://target/graphql", Execute: true, SchemaFile: path}, deps(tr, &out))
	require.NoError(t, err)
	assert.Empty(t, tr.sent)
	assert.Contains(t, out.String(), "No queries or mutations found")
}

func TestRunEmptyTypesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"__schema":{"queryType":{"name":"Query"},"types":[]}}}`), 0o600))

	tr := &stubTransport{}
	var out bytes.Buffer
	err := Run(context.Background(), Options{URL: "http://target/graphql", Execute: true, SchemaFile: path}, deps(tr, &out))
	require.NoError(t, err)
	assert.Zero(t, ExitCode(err))
	assert.Empty(t, tr.sent)
	assert.Contains(t, out.String(), "No queries or mutations found")
}

func TestRunConfigurationErrors(t *testing.T) {
	tests := map[string]Options{
		"scheme": {URL: "ftp://target/graphql"},
		"no url": {URL: "target/graphql"},
		"header": {URL: "http://target/graphql", Headers: []string{"broken"}},
		"proxy":  {URL: "http://target/graphql", Proxy: "::nope"},
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			err := Run(context.Background(), opts, Deps{Printer: console.NewColorPrinter(&out, true)})
			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, 1, ExitCode(err))
		})
	}
}

func TestRunMissingSchemaFile(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), Options{
		URL:        "http://target/graphql",
		Execute:    true,
		SchemaFile: filepath.Join(t.TempDir(), "absent.json"),
	}, deps(&stubTransport{}, &out))

	var unavailable *SchemaUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, storage.ErrSchemaNotFound)
}

func TestRunAgainstHTTPServer(t *testing.T) {
	fixture, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("X-Scan"))
		var p client.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		if strings.Contains(p.Query, "__schema") {
			_, _ = w.Write(fixture)
			return
		}
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err = Run(context.Background(), Options{
		URL:     srv.URL,
		Execute: true,
		Headers: []string{"X-Scan: 1"},
	}, Deps{Printer: console.NewColorPrinter(&out, true)})
	require.NoError(t, err)

	assert.Len(t, agents, 5)
	for _, a := range agents {
		assert.Equal(t, "1", a)
	}
	assert.Contains(t, out.String(), "Mutations executed: 1/1")
}

func TestRunReportsSchemaChanges(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	require.NoError(t, os.WriteFile(first, []byte(pingSchema), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(`{
  "queryType": {"name": "Query"},
  "types": [
    {"kind": "OBJECT", "name": "Query", "fields": [
      {"name": "ping", "args": [], "type": {"kind": "SCALAR", "name": "String"}},
      {"name": "secrets", "args": [], "type": {"kind": "SCALAR", "name": "String"}}
    ]}
  ]
}`), 0o600))

	tr := &stubTransport{respond: func(client.Payload) (*client.Response, error) {
		return reply(200, `{"data":{}}`)
	}}
	opts := Options{URL: "http://target/graphql", Execute: true, DB: dbPath}

	var out bytes.Buffer
	opts.SchemaFile = first
	require.NoError(t, Run(context.Background(), opts, deps(tr, &out)))
	assert.NotContains(t, out.String(), "Schema changed")

	out.Reset()
	require.NoError(t, Run(context.Background(), opts, deps(tr, &out)))
	assert.Contains(t, out.String(), "Schema unchanged")

	out.Reset()
	opts.SchemaFile = second
	require.NoError(t, Run(context.Background(), opts, deps(tr, &out)))
	assert.Contains(t, out.String(), "Schema changed")
	assert.Contains(t, out.String(), "+ Query.secrets")
}
