package schema

// MaxTypeRefDepth is the number of nested ofType levels the introspection
// query asks for. References nested deeper than this are never populated by
// the server, so resolution stops there.
const MaxTypeRefDepth = 7

// unknownType is the signature used when a reference cannot be resolved.
const unknownType = "Unknown"

// ResolveTypeName folds a (possibly wrapped) type reference into its GraphQL
// signature, e.g. NON_NULL(LIST(NON_NULL(String))) becomes "[String!]!".
func ResolveTypeName(ref *TypeRef) string {
	return resolveTypeName(ref, 0)
}

func resolveTypeName(ref *TypeRef, depth int) string {
	if ref == nil || depth > MaxTypeRefDepth {
		return unknownType
	}

	switch ref.Kind {
	case KindNonNull:
		return resolveTypeName(ref.OfType, depth+1) + "!"
	case KindList:
		return "[" + resolveTypeName(ref.OfType, depth+1) + "]"
	}

	if ref.Name != nil && *ref.Name != "" {
		return *ref.Name
	}
	if ref.OfType != nil {
		return resolveTypeName(ref.OfType, depth+1)
	}
	return unknownType
}
