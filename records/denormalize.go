package records

import (
	"vitaai.com/prontuario/types"
	"github.com/mohae/deepcopy"
)

func Denormalize(original types.RawDocument, edited *Record) types.RawDocument {
	return defaultReconciler.Denormalize(original, edited)
}

// Denormalize rebuilds a persistence payload from the original document and an
// edited record. The payload starts as a copy of original, so the envelope, block
// internals and keys nobody understood all survive. Only canonical fields whose
// value differs from what original normalizes to are written.
func (rc *Reconciler) Denormalize(original types.RawDocument, edited *Record) types.RawDocument {
	out := cloneDocument(original)
	if edited == nil {
		return out
	}
	body, _ := unwrap(out)
	for key, value := range edited.UnknownFields {
		body[key] = deepcopy.Copy(value)
	}

	baseline := rc.Normalize(original)
	for _, alias := range rc.table.aliases {
		if !changed(baseline, edited, alias.Field) {
			continue
		}
		target := targetFor(body, baseline.layout.Shape, alias.Group)
		key := baseline.sources[alias.Field]
		if key == "" {
			key = alias.Keys[0]
		}
		target[key] = persistedValue(alias, baseline, edited)
		// A shadowed spelling would be read back once key holds a blank value.
		for _, other := range alias.Keys {
			if other != key {
				delete(target, other)
			}
		}
	}
	return out
}

func cloneDocument(doc types.RawDocument) types.RawDocument {
	if doc == nil {
		return types.RawDocument{}
	}
	return deepcopy.Copy(doc).(types.RawDocument)
}

func changed(baseline, edited *Record, field Field) bool {
	if field == FieldProcedures {
		return !equalStrings(baseline.ProceduresList, SplitList(edited.ProceduresDisplay))
	}
	return baseline.Text(field) != edited.Text(field)
}

// targetFor returns the mapping a group's fields are written into, creating the
// group block for nested documents when it does not exist yet. A block key already
// holding a non-mapping value is never overwritten; the field then goes to the top
// level.
func targetFor(body map[string]interface{}, shape Shape, group Group) map[string]interface{} {
	if shape != NestedUnified {
		return body
	}
	existing, present := body[group.BlockKey()]
	if block, ok := asMap(existing); ok {
		return block
	}
	if present && existing != nil {
		return body
	}
	block := map[string]interface{}{}
	body[group.BlockKey()] = block
	return block
}

func persistedValue(alias Alias, baseline, edited *Record) interface{} {
	if alias.Field == FieldProcedures {
		return toDocumentList(SplitList(edited.ProceduresDisplay))
	}
	text := edited.Text(alias.Field)
	if alias.ListValued && !baseline.scalar[alias.Field] {
		return toDocumentList(SplitList(text))
	}
	return text
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
