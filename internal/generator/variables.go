package generator

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// MockValue returns a placeholder value for a type reference. Only the five
// built-in scalars get a concrete value; lists become an empty list and every
// other named type (enums, input objects, custom scalars) becomes null.
//
// The server is expected to reject mismatches on custom inputs; the validation
// error is itself useful output.
func MockValue(ref *schema.TypeRef) any {
	typeName := strings.TrimSuffix(schema.ResolveTypeName(ref), "!")

	if strings.HasPrefix(typeName, "[") {
		return []any{}
	}

	switch typeName {
	case "String":
		return "test"
	case "Int":
		return 1
	case "Float":
		return 1.0
	case "Boolean":
		return true
	case "ID":
		return "1"
	default:
		return nil
	}
}

// Variable is one entry of an operation's variables payload.
type Variable struct {
	Name  string
	Value any
}

// Variables is an ordered variables payload. It marshals to a JSON object
// whose keys keep argument declaration order.
type Variables []Variable

// MarshalJSON implements json.Marshaler.
func (v Variables) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, variable := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(variable.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(variable.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Names returns the variable names in order.
func (v Variables) Names() []string {
	names := make([]string, 0, len(v))
	for _, variable := range v {
		names = append(names, variable.Name)
	}
	return names
}
