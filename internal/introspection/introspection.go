package introspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/0xDTC/gqlxplorer/internal/client"
	"github.com/0xDTC/gqlxplorer/internal/parser"
	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// Transport sends a GraphQL payload to the target.
type Transport interface {
	Do(ctx context.Context, p client.Payload) (*client.Response, error)
}

// Status is the outcome of the introspection check.
type Status int

const (
	// Enabled means the endpoint returned data.__schema.
	Enabled Status = iota
	// Disabled means the endpoint answered with a GraphQL error.
	Disabled
	// LikelyDisabled means the endpoint answered JSON without a schema or errors.
	LikelyDisabled
	// Unparseable means the endpoint did not answer with JSON.
	Unparseable
)

func (s Status) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case Disabled:
		return "disabled"
	case LikelyDisabled:
		return "likely disabled"
	case Unparseable:
		return "unparseable"
	}
	return "unknown"
}

// CheckResult describes what the check query revealed.
type CheckResult struct {
	Status     Status
	StatusCode int
	// Message is the first GraphQL error for Disabled, or the truncated body
	// for Unparseable.
	Message string
}

// Enabled reports whether introspection is available.
func (r CheckResult) Enabled() bool {
	return r.Status == Enabled
}

// ErrNoSchema is returned by Fetch when the response carries no data.__schema.
var ErrNoSchema = errors.New("response has no data.__schema")

type schemaEnvelope struct {
	Schema json.RawMessage `json:"__schema"`
}

// Check sends CheckQuery. The returned error is non-nil only when no
// response was received.
func Check(ctx context.Context, t Transport) (CheckResult, error) {
	resp, err := t.Do(ctx, client.Payload{Query: CheckQuery})
	if err != nil {
		return CheckResult{}, fmt.Errorf("introspection check: %w", err)
	}

	result := CheckResult{StatusCode: resp.StatusCode}
	body, err := resp.GraphQL()
	if err != nil {
		result.Status = Unparseable
		result.Message = resp.RawText()
		return result, nil
	}

	switch {
	case hasSchema(body):
		result.Status = Enabled
	case len(body.Errors) > 0:
		result.Status = Disabled
		result.Message = body.FirstError()
	default:
		result.Status = LikelyDisabled
	}
	return result, nil
}

// Fetch sends FullQuery and parses the schema. It also returns the bare
// __schema object as received, for saving to disk.
func Fetch(ctx context.Context, t Transport) (*schema.Schema, json.RawMessage, error) {
	resp, err := t.Do(ctx, client.Payload{Query: FullQuery})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch schema: %w", err)
	}

	body, err := resp.GraphQL()
	if err != nil {
		return nil, nil, fmt.Errorf("fetch schema: %w", err)
	}
	if !hasSchema(body) {
		if msg := body.FirstError(); msg != "" {
			return nil, nil, fmt.Errorf("fetch schema: %w: %s", ErrNoSchema, msg)
		}
		return nil, nil, fmt.Errorf("fetch schema: %w", ErrNoSchema)
	}

	s, raw, err := parser.ParseIntrospection(resp.Body, schema.SourceIntrospection)
	if err != nil {
		return nil, nil, fmt.Errorf("parse schema: %w", err)
	}
	return s, raw, nil
}

func hasSchema(body *client.GraphQLBody) bool {
	if !body.HasData() {
		return false
	}
	var env schemaEnvelope
	if err := json.Unmarshal(body.Data, &env); err != nil {
		return false
	}
	return len(env.Schema) > 0 && string(env.Schema) != "null"
}
