package generator

import (
	"fmt"
	"strings"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// OperationKind is the GraphQL operation keyword used in a generated document.
type OperationKind string

const (
	Query    OperationKind = "query"
	Mutation OperationKind = "mutation"
)

// operationName is the fixed name given to every generated operation.
const operationName = "Operation"

// Operation is a synthetic GraphQL request for a single root field.
type Operation struct {
	Kind      OperationKind
	Field     string
	Document  string
	Variables Variables
}

// BuildOperation builds a document calling the root field name with one
// variable per argument. Argument i is bound to $var<i>, declared with the
// argument's type signature and given a placeholder value.
//
// The output depends only on its inputs, so identical fields always produce
// identical documents and variable order.
func BuildOperation(name string, args []schema.Argument, kind OperationKind) Operation {
	op := Operation{
		Kind:      kind,
		Field:     name,
		Variables: make(Variables, 0, len(args)),
	}

	varDefs := make([]string, 0, len(args))
	argRefs := make([]string, 0, len(args))
	for i, arg := range args {
		varName := fmt.Sprintf("var%d", i)
		varDefs = append(varDefs, fmt.Sprintf("$%s: %s", varName, schema.ResolveTypeName(&arg.Type)))
		argRefs = append(argRefs, fmt.Sprintf("%s: $%s", arg.Name, varName))
		op.Variables = append(op.Variables, Variable{Name: varName, Value: MockValue(&arg.Type)})
	}

	var varsPart, argsPart string
	if len(varDefs) > 0 {
		varsPart = "(" + strings.Join(varDefs, ", ") + ")"
		argsPart = "(" + strings.Join(argRefs, ", ") + ")"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s%s {\n", kind, operationName, varsPart))
	b.WriteString(fmt.Sprintf("  %s%s\n", name, argsPart))
	b.WriteString("}")

	op.Document = strings.TrimSpace(b.String())
	return op
}

// BuildForField builds the operation for a root field of the given kind.
func BuildForField(f schema.Field, kind OperationKind) Operation {
	return BuildOperation(f.Name, f.Args, kind)
}
