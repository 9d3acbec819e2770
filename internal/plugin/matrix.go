package plugin

// compatibility is the fixed directed adjacency table governing which plugin
// types may feed which. Rows are source types, columns are targets. Absent
// rows/entries mean the pairing is invalid.
var compatibility = map[Type]map[Type]bool{
	TypeExtractor: {
		TypeCleanser:    true,
		TypeTransformer: true,
		TypeValidator:   true,
		TypeLoader:      true,
	},
	TypeCleanser: {
		TypeCleanser:    true,
		TypeTransformer: true,
		TypeValidator:   true,
		TypeLoader:      true,
	},
	TypeTransformer: {
		TypeTransformer: true,
		TypeValidator:   true,
		TypeLoader:      true,
	},
	TypeValidator: {
		TypeValidator: true,
		TypeLoader:    true,
	},
	// TypeLoader has no outgoing edges.
}

// CanConnect reports whether an edge from a src-typed node to a dst-typed
// node is allowed. The table agrees with the handle rules: it is false
// whenever src has no output handle or dst has no input handle, so unknown
// stubs can never be wired.
func CanConnect(src, dst Type) bool {
	return compatibility[src][dst]
}
