package records

import (
	"vitaai.com/prontuario/types"
)

type Shape string

const (
	FlatLegacy    Shape = "flat-legacy"
	NestedUnified Shape = "nested-unified"
)

// Layout is how a document is organized: its shape and whether the fields sit
// one level down under the "data" envelope.
type Layout struct {
	Shape     Shape `json:"shape"`
	Enveloped bool  `json:"enveloped"`
}

func Detect(raw types.RawDocument) Shape {
	return Inspect(raw).Shape
}

// Inspect must run before any extraction: reading a nested document as flat (or the
// reverse) yields empty fields instead of an error.
func Inspect(raw types.RawDocument) Layout {
	body, enveloped := unwrap(raw)
	layout := Layout{Shape: FlatLegacy, Enveloped: enveloped}
	if _, ok := asMap(body[ComplaintBlockKey]); ok {
		layout.Shape = NestedUnified
	}
	if _, ok := asMap(body[ProcedureBlockKey]); ok {
		layout.Shape = NestedUnified
	}
	return layout
}

func unwrap(raw types.RawDocument) (map[string]interface{}, bool) {
	if inner, ok := asMap(raw[EnvelopeKey]); ok {
		return inner, true
	}
	return raw, false
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch value := v.(type) {
	case map[string]interface{}:
		return value, value != nil
	case types.RawDocument:
		return value, value != nil
	}
	return nil, false
}
