package generator

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Validate checks that a document is syntactically valid GraphQL holding a
// single operation. It does not check the document against a schema.
func Validate(document string) error {
	doc, err := parser.ParseQuery(&ast.Source{Name: operationName, Input: document})
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if len(doc.Operations) != 1 {
		return fmt.Errorf("expected 1 operation, got %d", len(doc.Operations))
	}
	return nil
}
