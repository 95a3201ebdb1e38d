package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

func scalar(name string) schema.TypeRef {
	return schema.TypeRef{Kind: schema.KindScalar, Name: schema.Named(name)}
}

func nonNull(ref schema.TypeRef) schema.TypeRef {
	return schema.TypeRef{Kind: schema.KindNonNull, OfType: &ref}
}

func TestDiffSchemas(t *testing.T) {
	before := &schema.Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Types: []schema.Type{
			{Name: "Query", Kind: schema.KindObject, Fields: []schema.Field{
				{Name: "ping", Type: scalar("String")},
				{Name: "user", Type: scalar("ID")},
				{Name: "legacy", Type: scalar("String")},
			}},
			{Name: "Mutation", Kind: schema.KindObject, Fields: []schema.Field{
				{Name: "login", Type: scalar("String")},
			}},
			{Name: "Old", Kind: schema.KindObject},
			{Name: "__Type", Kind: schema.KindObject},
		},
	}
	after := &schema.Schema{
		QueryType:    "Query",
		MutationType: "Mutation",
		Types: []schema.Type{
			{Name: "Query", Kind: schema.KindObject, Fields: []schema.Field{
				{Name: "ping", Type: nonNull(scalar("String"))},
				{Name: "user", Type: scalar("Int")},
				{Name: "admin", Type: scalar("String")},
			}},
			{Name: "Mutation", Kind: schema.KindObject, Fields: []schema.Field{
				{Name: "login", Type: scalar("String")},
				{Name: "deleteAll", Type: scalar("Boolean")},
			}},
			{Name: "New", Kind: schema.KindObject},
		},
	}

	d := DiffSchemas(before, after)

	assert.False(t, d.Empty())
	assert.Equal(t, []string{"New"}, d.AddedTypes)
	assert.Equal(t, []string{"Old"}, d.RemovedTypes)
	assert.Equal(t, []string{"Mutation.deleteAll", "Query.admin"}, d.AddedFields)
	assert.Equal(t, []string{"Query.legacy"}, d.RemovedFields)
	assert.Equal(t, []FieldChange{
		{Path: "Query.ping", OldType: "String", NewType: "String!", Breaking: true},
		{Path: "Query.user", OldType: "ID", NewType: "Int", Breaking: true},
	}, d.Changed)

	added, removed := d.Operations(after)
	assert.Equal(t, []string{"Mutation.deleteAll", "Query.admin"}, added)
	assert.Equal(t, []string{"Query.legacy"}, removed)
}

func TestDiffSchemasIdentical(t *testing.T) {
	s := &schema.Schema{Types: []schema.Type{
		{Name: "Query", Kind: schema.KindObject, Fields: []schema.Field{{Name: "ping", Type: scalar("String")}}},
	}}
	assert.True(t, DiffSchemas(s, s).Empty())
}

func TestNullableWideningIsNotBreaking(t *testing.T) {
	assert.False(t, isBreakingChange(nonNull(scalar("String")), scalar("String")))
	assert.True(t, isBreakingChange(scalar("String"), nonNull(scalar("String"))))
}
