package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// ErrNoSchema is returned when a document parses as JSON but carries no
// recognizable __schema object.
var ErrNoSchema = errors.New("unrecognized introspection format: no __schema found with types or queryType")

// introspectionResponse matches the standard GraphQL introspection response format.
type introspectionResponse struct {
	Data struct {
		Schema json.RawMessage `json:"__schema"`
	} `json:"data"`
}

// altIntrospectionResponse handles cases where __schema is at root level.
type altIntrospectionResponse struct {
	Schema json.RawMessage `json:"__schema"`
}

type rawSchema struct {
	QueryType        *rawNameRef    `json:"queryType"`
	MutationType     *rawNameRef    `json:"mutationType"`
	SubscriptionType *rawNameRef    `json:"subscriptionType"`
	Types            []rawType      `json:"types"`
	Directives       []rawDirective `json:"directives"`
}

type rawNameRef struct {
	Name string `json:"name"`
}

type rawType struct {
	Kind          string         `json:"kind"`
	Name          string         `json:"name"`
	Description   *string        `json:"description"`
	Fields        []rawField     `json:"fields"`
	InputFields   []rawField     `json:"inputFields"`
	Interfaces    []rawTypeRef   `json:"interfaces"`
	EnumValues    []rawEnumValue `json:"enumValues"`
	PossibleTypes []rawTypeRef   `json:"possibleTypes"`
}

type rawField struct {
	Name              string      `json:"name"`
	Description       *string     `json:"description"`
	Args              []rawArg    `json:"args"`
	Type              *rawTypeRef `json:"type"`
	IsDeprecated      bool        `json:"isDeprecated"`
	DeprecationReason *string     `json:"deprecationReason"`
}

type rawArg struct {
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Type         *rawTypeRef `json:"type"`
	DefaultValue *string     `json:"defaultValue"`
}

type rawTypeRef struct {
	Kind   *string     `json:"kind"`
	Name   *string     `json:"name"`
	OfType *rawTypeRef `json:"ofType"`
}

type rawEnumValue struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type rawDirective struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Locations   []string `json:"locations"`
	Args        []rawArg `json:"args"`
}

// ParseIntrospection parses introspection JSON into our Schema model. It
// returns the bare __schema object as well so callers can persist it.
func ParseIntrospection(data []byte, source schema.SchemaSource) (*schema.Schema, json.RawMessage, error) {
	rawJSON, err := ExtractSchemaJSON(data)
	if err != nil {
		return nil, nil, err
	}

	var raw rawSchema
	if err := json.Unmarshal(rawJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode __schema: %w", err)
	}

	s := &schema.Schema{Source: source}
	if raw.QueryType != nil {
		s.QueryType = raw.QueryType.Name
	}
	if raw.MutationType != nil {
		s.MutationType = raw.MutationType.Name
	}
	if raw.SubscriptionType != nil {
		s.SubscriptionType = raw.SubscriptionType.Name
	}

	for _, rt := range raw.Types {
		s.Types = append(s.Types, convertType(rt))
	}

	for _, rd := range raw.Directives {
		s.Directives = append(s.Directives, convertDirective(rd))
	}

	return s, rawJSON, nil
}

// ExtractSchemaJSON locates the __schema object in one of the accepted shapes:
// {"data":{"__schema":{...}}}, {"__schema":{...}} or the bare schema object.
func ExtractSchemaJSON(data []byte) (json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	var std introspectionResponse
	if err := json.Unmarshal(data, &std); err == nil && hasTypes(std.Data.Schema) {
		return std.Data.Schema, nil
	}

	var alt altIntrospectionResponse
	if err := json.Unmarshal(data, &alt); err == nil && hasTypes(alt.Schema) {
		return alt.Schema, nil
	}

	if hasTypes(data) {
		return bytes.TrimSpace(data), nil
	}

	return nil, ErrNoSchema
}

// hasTypes reports whether data looks like a __schema object: a types array
// that is either non-empty or accompanied by a queryType. An endpoint with
// no types of its own is still a schema.
func hasTypes(data json.RawMessage) bool {
	if len(data) == 0 {
		return false
	}
	var head struct {
		Types     *[]json.RawMessage `json:"types"`
		QueryType json.RawMessage    `json:"queryType"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Types == nil {
		return false
	}
	return len(*head.Types) > 0 || len(head.QueryType) > 0
}

func convertType(rt rawType) schema.Type {
	t := schema.Type{
		Kind: schema.TypeKind(rt.Kind),
		Name: rt.Name,
	}
	if rt.Description != nil {
		t.Description = *rt.Description
	}

	for _, rf := range rt.Fields {
		t.Fields = append(t.Fields, convertField(rf))
	}
	for _, rf := range rt.InputFields {
		t.InputFields = append(t.InputFields, convertField(rf))
	}
	for _, ev := range rt.EnumValues {
		t.EnumValues = append(t.EnumValues, convertEnumValue(ev))
	}
	for _, iface := range rt.Interfaces {
		if iface.Name != nil {
			t.Interfaces = append(t.Interfaces, *iface.Name)
		}
	}
	for _, pt := range rt.PossibleTypes {
		if pt.Name != nil {
			t.PossibleTypes = append(t.PossibleTypes, *pt.Name)
		}
	}
	return t
}

func convertField(rf rawField) schema.Field {
	f := schema.Field{
		Name:         rf.Name,
		Type:         convertTypeRef(rf.Type),
		IsDeprecated: rf.IsDeprecated,
	}
	if rf.Description != nil {
		f.Description = *rf.Description
	}
	if rf.DeprecationReason != nil {
		f.DeprecationReason = *rf.DeprecationReason
	}
	for _, ra := range rf.Args {
		f.Args = append(f.Args, convertArg(ra))
	}
	return f
}

func convertArg(ra rawArg) schema.Argument {
	a := schema.Argument{
		Name:         ra.Name,
		Type:         convertTypeRef(ra.Type),
		DefaultValue: ra.DefaultValue,
	}
	if ra.Description != nil {
		a.Description = *ra.Description
	}
	return a
}

// convertTypeRef copies the wrapper chain. A missing reference becomes the
// zero TypeRef, which resolves to "Unknown".
func convertTypeRef(rt *rawTypeRef) schema.TypeRef {
	ref := schema.TypeRef{}
	if rt == nil {
		return ref
	}
	if rt.Kind != nil {
		ref.Kind = schema.TypeKind(*rt.Kind)
	}
	if rt.Name != nil {
		ref.Name = schema.Named(*rt.Name)
	}
	if rt.OfType != nil {
		inner := convertTypeRef(rt.OfType)
		ref.OfType = &inner
	}
	return ref
}

func convertEnumValue(rev rawEnumValue) schema.EnumValue {
	ev := schema.EnumValue{
		Name:         rev.Name,
		IsDeprecated: rev.IsDeprecated,
	}
	if rev.Description != nil {
		ev.Description = *rev.Description
	}
	if rev.DeprecationReason != nil {
		ev.DeprecationReason = *rev.DeprecationReason
	}
	return ev
}

func convertDirective(rd rawDirective) schema.Directive {
	d := schema.Directive{
		Name:      rd.Name,
		Locations: rd.Locations,
	}
	if rd.Description != nil {
		d.Description = *rd.Description
	}
	for _, ra := range rd.Args {
		d.Args = append(d.Args, convertArg(ra))
	}
	return d
}
