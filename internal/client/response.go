package client

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// RawTextLimit bounds the raw body kept when a response is not JSON.
const RawTextLimit = 200

// GraphQLError is a single entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLBody is the envelope of a GraphQL response.
type GraphQLBody struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// HasData reports whether the response carries a non-null data member.
func (b *GraphQLBody) HasData() bool {
	return len(b.Data) > 0 && string(b.Data) != "null"
}

// FirstError returns the first error message, or "" when there are none.
func (b *GraphQLBody) FirstError() string {
	if len(b.Errors) == 0 {
		return ""
	}
	if b.Errors[0].Message == "" {
		return "Unknown error"
	}
	return b.Errors[0].Message
}

// JSON returns the body as raw JSON when it is valid JSON.
func (r *Response) JSON() (json.RawMessage, bool) {
	if !json.Valid(r.Body) {
		return nil, false
	}
	return json.RawMessage(r.Body), true
}

// GraphQL decodes the body as a GraphQL response envelope.
func (r *Response) GraphQL() (*GraphQLBody, error) {
	var body GraphQLBody
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	return &body, nil
}

// RawText returns the body as text, truncated to RawTextLimit bytes.
func (r *Response) RawText() string {
	return Truncate(string(r.Body), RawTextLimit)
}

// Truncate cuts s to at most maxLen bytes without splitting a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
