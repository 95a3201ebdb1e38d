package schema

// FindType locates a type by name within a schema.
func FindType(s *Schema, name string) *Type {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i]
		}
	}
	return nil
}

// ExtractOperations returns every field of the root query type and every
// field of the root mutation type, in declaration order.
//
// A type whose name matches both roots contributes its fields to both lists.
func ExtractOperations(s *Schema) (queries, mutations []Field) {
	if s == nil {
		return nil, nil
	}

	for _, t := range s.Types {
		if len(t.Fields) == 0 || t.Name == "" {
			continue
		}
		if t.Name == s.QueryType {
			queries = append(queries, t.Fields...)
		}
		if t.Name == s.MutationType {
			mutations = append(mutations, t.Fields...)
		}
	}

	return queries, mutations
}
