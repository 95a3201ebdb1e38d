package introspection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/generator"
	"github.com/0xDTC/gqlxplorer/internal/schema"
)

type stubTransport struct {
	status int
	body   string
	err    error
	sent   []client.Payload
}

func (s *stubTransport) Do(_ context.Context, p client.Payload) (*client.Response, error) {
	s.sent = append(s.sent, p)
	if s.err != nil {
		return nil, s.err
	}
	return &client.Response{StatusCode: s.status, Body: []byte(s.body)}, nil
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  Status
		message string
	}{
		{"enabled", `{"data":{"__schema":{"queryType":{"name":"Query"}}}}`, Enabled, ""},
		{"disabled", `{"errors":[{"message":"introspection is not allowed"}]}`, Disabled, "introspection is not allowed"},
		{"error without message", `{"errors":[{}]}`, Disabled, "Unknown error"},
		{"likely disabled", `{"data":{}}`, LikelyDisabled, ""},
		{"null schema", `{"data":{"__schema":null}}`, LikelyDisabled, ""},
		{"not json", `<html>blocked</html>`, Unparseable, "<html>blocked</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTransport{status: 200, body: tt.body}
			res, err := Check(context.Background(), tr)
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, tt.status == Enabled, res.Enabled())
			require.Len(t, tr.sent, 1)
			assert.Equal(t, CheckQuery, tr.sent[0].Query)
			assert.Nil(t, tr.sent[0].Variables)
		})
	}
}

func TestCheckTruncatesBody(t *testing.T) {
	tr := &stubTransport{status: 403, body: strings.Repeat("x", 1000)}
	res, err := Check(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, Unparseable, res.Status)
	assert.Equal(t, 403, res.StatusCode)
	assert.Len(t, res.Message, client.RawTextLimit)
}

func TestCheckTransportError(t *testing.T) {
	tr := &stubTransport{err: &client.TransportError{URL: "http://x", Err: errors.New("refused")}}
	_, err := Check(context.Background(), tr)
	var terr *client.TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestFetch(t *testing.T) {
	data, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	tr := &stubTransport{status: 200, body: string(data)}
	s, raw, err := Fetch(context.Background(), tr)
	require.NoError(t, err)

	assert.Equal(t, FullQuery, tr.sent[0].Query)
	assert.Equal(t, schema.SourceIntrospection, s.Source)
	assert.Equal(t, "Query", s.QueryType)
	assert.Contains(t, string(raw), `"types"`)

	queries, mutations := schema.ExtractOperations(s)
	assert.Len(t, queries, 2)
	assert.Len(t, mutations, 1)
}

func TestFetchFailures(t *testing.T) {
	tr := &stubTransport{status: 200, body: `{"errors":[{"message":"nope"}]}`}
	_, _, err := Fetch(context.Background(), tr)
	require.ErrorIs(t, err, ErrNoSchema)
	assert.Contains(t, err.Error(), "nope")

	tr = &stubTransport{status: 502, body: "bad gateway"}
	_, _, err = Fetch(context.Background(), tr)
	assert.Error(t, err)
}

func TestQueriesParse(t *testing.T) {
	assert.NoError(t, generator.Validate(CheckQuery))
	assert.NoError(t, generator.Validate(FullQuery))
	assert.Equal(t, schema.MaxTypeRefDepth, strings.Count(FullQuery, "ofType {"))
}

func TestFetchOversizedSchema(t *testing.T) {
	data, err := os.ReadFile("../parser/testdata/introspection.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, client.Options{MaxBodySize: int64(len(data) - 1)})
	require.NoError(t, err)
	_, _, err = Fetch(context.Background(), c)
	var tooLarge *client.ResponseTooLargeError
	require.True(t, errors.As(err, &tooLarge), "got %v", err)
	assert.Contains(t, err.Error(), "exceeds")

	c, err = client.New(srv.URL, client.Options{MaxBodySize: int64(len(data))})
	require.NoError(t, err)
	s, _, err := Fetch(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "Query", s.QueryType)
}
