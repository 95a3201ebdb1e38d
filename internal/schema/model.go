package schema

// TypeKind represents the kind of a GraphQL type.
type TypeKind string

const (
	KindScalar      TypeKind = "SCALAR"
	KindObject      TypeKind = "OBJECT"
	KindInterface   TypeKind = "INTERFACE"
	KindUnion       TypeKind = "UNION"
	KindEnum        TypeKind = "ENUM"
	KindInputObject TypeKind = "INPUT_OBJECT"
	KindList        TypeKind = "LIST"
	KindNonNull     TypeKind = "NON_NULL"
)

// SchemaSource indicates how the schema was obtained.
type SchemaSource string

const (
	SourceIntrospection SchemaSource = "introspection"
	SourceFile          SchemaSource = "file"
)

// Schema is the top-level container for a parsed GraphQL schema.
// It is treated as read-only once parsed.
type Schema struct {
	Source           SchemaSource `json:"source,omitempty"`
	QueryType        string       `json:"queryType,omitempty"`
	MutationType     string       `json:"mutationType,omitempty"`
	SubscriptionType string       `json:"subscriptionType,omitempty"`
	Types            []Type       `json:"types"`
	Directives       []Directive  `json:"directives,omitempty"`
}

// Type represents a named GraphQL type definition.
type Type struct {
	Name          string      `json:"name"`
	Kind          TypeKind    `json:"kind"`
	Description   string      `json:"description,omitempty"`
	Fields        []Field     `json:"fields,omitempty"`
	InputFields   []Field     `json:"inputFields,omitempty"`
	EnumValues    []EnumValue `json:"enumValues,omitempty"`
	Interfaces    []string    `json:"interfaces,omitempty"`
	PossibleTypes []string    `json:"possibleTypes,omitempty"`
}

// Field represents a field on a GraphQL type. Fields of the root query and
// mutation types are the operations the runner replays.
type Field struct {
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Type              TypeRef    `json:"type"`
	Args              []Argument `json:"args,omitempty"`
	IsDeprecated      bool       `json:"isDeprecated,omitempty"`
	DeprecationReason string     `json:"deprecationReason,omitempty"`
}

// TypeRef represents a reference to a type, supporting wrapping (NON_NULL, LIST).
type TypeRef struct {
	Kind   TypeKind `json:"kind"`
	Name   *string  `json:"name,omitempty"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

// BaseName unwraps NON_NULL and LIST wrappers to return the underlying type name.
func (t TypeRef) BaseName() string {
	if t.Name != nil {
		return *t.Name
	}
	if t.OfType != nil {
		return t.OfType.BaseName()
	}
	return ""
}

// IsNonNull returns true if this type reference is wrapped in NON_NULL.
func (t TypeRef) IsNonNull() bool {
	return t.Kind == KindNonNull
}

// Signature returns a human-readable type signature like "[String!]!" or "Int".
func (t TypeRef) Signature() string {
	return ResolveTypeName(&t)
}

// Argument represents a field or directive argument.
type Argument struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Type         TypeRef `json:"type"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// EnumValue represents a value in a GraphQL enum type.
type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated,omitempty"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

// Directive represents a GraphQL directive.
type Directive struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Locations   []string   `json:"locations,omitempty"`
	Args        []Argument `json:"args,omitempty"`
}

// Named returns a pointer to a copy of name, for building TypeRefs by hand.
func Named(name string) *string {
	return &name
}
