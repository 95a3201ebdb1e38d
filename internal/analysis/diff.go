package analysis

import (
	"sort"
	"strings"

	"github.com/0xDTC/gqlxplorer/internal/schema"
)

// FieldChange is a field whose type signature differs between two schemas.
type FieldChange struct {
	Path     string `json:"path"`
	OldType  string `json:"oldType"`
	NewType  string `json:"newType"`
	Breaking bool   `json:"breaking"`
}

// SchemaDiff lists what changed from an earlier schema to a later one.
// All slices are sorted.
type SchemaDiff struct {
	AddedTypes    []string      `json:"addedTypes,omitempty"`
	RemovedTypes  []string      `json:"removedTypes,omitempty"`
	AddedFields   []string      `json:"addedFields,omitempty"`
	RemovedFields []string      `json:"removedFields,omitempty"`
	Changed       []FieldChange `json:"changed,omitempty"`
}

// Empty reports whether the two schemas are equivalent.
func (d SchemaDiff) Empty() bool {
	return len(d.AddedTypes) == 0 && len(d.RemovedTypes) == 0 &&
		len(d.AddedFields) == 0 && len(d.RemovedFields) == 0 && len(d.Changed) == 0
}

// Operations returns the added and removed root fields, as
// "Query.name" / "Mutation.name" paths.
func (d SchemaDiff) Operations(s *schema.Schema) (added, removed []string) {
	isRoot := func(path string) bool {
		typ, _, _ := strings.Cut(path, ".")
		return typ != "" && (typ == s.QueryType || typ == s.MutationType)
	}
	for _, p := range d.AddedFields {
		if isRoot(p) {
			added = append(added, p)
		}
	}
	for _, p := range d.RemovedFields {
		if isRoot(p) {
			removed = append(removed, p)
		}
	}
	return added, removed
}

// DiffSchemas compares an earlier schema a with a later schema b.
// Introspection types (names starting with "__") are ignored.
func DiffSchemas(a, b *schema.Schema) SchemaDiff {
	var diff SchemaDiff

	aTypes := typeMap(a)
	bTypes := typeMap(b)

	for name := range bTypes {
		if _, exists := aTypes[name]; !exists {
			diff.AddedTypes = append(diff.AddedTypes, name)
		}
	}
	for name := range aTypes {
		if _, exists := bTypes[name]; !exists {
			diff.RemovedTypes = append(diff.RemovedTypes, name)
		}
	}

	for name, aType := range aTypes {
		bType, exists := bTypes[name]
		if !exists {
			continue
		}

		aFields := fieldMap(aType)
		bFields := fieldMap(bType)

		for fname := range bFields {
			if _, exists := aFields[fname]; !exists {
				diff.AddedFields = append(diff.AddedFields, name+"."+fname)
			}
		}
		for fname, aField := range aFields {
			bField, exists := bFields[fname]
			if !exists {
				diff.RemovedFields = append(diff.RemovedFields, name+"."+fname)
				continue
			}
			oldSig := aField.Type.Signature()
			newSig := bField.Type.Signature()
			if oldSig != newSig {
				diff.Changed = append(diff.Changed, FieldChange{
					Path:     name + "." + fname,
					OldType:  oldSig,
					NewType:  newSig,
					Breaking: isBreakingChange(aField.Type, bField.Type),
				})
			}
		}
	}

	sort.Strings(diff.AddedTypes)
	sort.Strings(diff.RemovedTypes)
	sort.Strings(diff.AddedFields)
	sort.Strings(diff.RemovedFields)
	sort.Slice(diff.Changed, func(i, j int) bool { return diff.Changed[i].Path < diff.Changed[j].Path })
	return diff
}

func typeMap(s *schema.Schema) map[string]*schema.Type {
	m := make(map[string]*schema.Type)
	for i := range s.Types {
		t := &s.Types[i]
		if strings.HasPrefix(t.Name, "__") {
			continue
		}
		m[t.Name] = t
	}
	return m
}

func fieldMap(t *schema.Type) map[string]*schema.Field {
	m := make(map[string]*schema.Field)
	fields := t.Fields
	if t.Kind == schema.KindInputObject {
		fields = t.InputFields
	}
	for i := range fields {
		m[fields[i].Name] = &fields[i]
	}
	return m
}

// isBreakingChange reports whether a signature change can break an existing
// caller: adding a non-null wrapper or changing the base type.
func isBreakingChange(old, new schema.TypeRef) bool {
	if !old.IsNonNull() && new.IsNonNull() {
		return true
	}
	return old.BaseName() != new.BaseName()
}
