package plugin

// Type classifies a plugin by its role in a pipeline.
type Type string

const (
	TypeExtractor   Type = "extractor"
	TypeCleanser    Type = "cleanser"
	TypeTransformer Type = "transformer"
	TypeValidator   Type = "validator"
	TypeLoader      Type = "loader"

	// TypeUnknown marks a descriptor stubbed in for a plugin that is no
	// longer present in the catalog.
	TypeUnknown Type = "unknown"
)

// Types lists the catalog plugin types in pipeline order. TypeUnknown is
// excluded; it never appears in a catalog response.
var Types = []Type{TypeExtractor, TypeCleanser, TypeTransformer, TypeValidator, TypeLoader}

func (t Type) valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// HasInput reports whether nodes of this type expose an input handle.
// Extractors originate data and accept no upstream edge.
func (t Type) HasInput() bool {
	switch t {
	case TypeCleanser, TypeTransformer, TypeValidator, TypeLoader:
		return true
	}
	return false
}

// HasOutput reports whether nodes of this type expose an output handle.
// Loaders terminate a pipeline and emit nothing downstream.
func (t Type) HasOutput() bool {
	switch t {
	case TypeExtractor, TypeCleanser, TypeTransformer, TypeValidator:
		return true
	}
	return false
}

// Descriptor describes one reusable pipeline-step kind as served by the
// catalog. Descriptors are immutable once fetched.
type Descriptor struct {
	Name             string         `json:"name"`
	Type             Type           `json:"type"`
	Description      string         `json:"description,omitempty"`
	ParametersSchema map[string]any `json:"parameters_schema,omitempty"`
}

// UnknownStub returns a degraded descriptor for a plugin name the catalog
// cannot resolve. The empty schema means params cannot be validated, but
// they are still preserved verbatim by the codec.
func UnknownStub(name string) *Descriptor {
	return &Descriptor{
		Name:             name,
		Type:             TypeUnknown,
		ParametersSchema: map[string]any{},
	}
}
