package records

import (
	"vitaai.com/prontuario/types"
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog"
)

// Reconciler is the single authority translating between persisted documents and
// canonical records. It holds no mutable state and is safe to share.
type Reconciler struct {
	table  *Table
	logger zerolog.Logger
}

var defaultReconciler = NewReconciler(DefaultTable())

func NewReconciler(table *Table) *Reconciler {
	if table == nil {
		table = DefaultTable()
	}
	return &Reconciler{
		table:  table,
		logger: zerolog.Nop(),
	}
}

// WithLogger returns a copy of the reconciler that logs shape decisions at debug level.
func (rc *Reconciler) WithLogger(logger zerolog.Logger) *Reconciler {
	clone := *rc
	clone.logger = logger
	return &clone
}

func (rc *Reconciler) Table() *Table {
	return rc.table
}

func Normalize(raw types.RawDocument) *Record {
	return defaultReconciler.Normalize(raw)
}

func NormalizeStored(stored *types.StoredRecord) *Record {
	return defaultReconciler.NormalizeStored(stored)
}

// Normalize never fails: fields it cannot recognize resolve to absent values and
// top level keys it does not claim are kept in UnknownFields.
func (rc *Reconciler) Normalize(raw types.RawDocument) *Record {
	layout := Inspect(raw)
	body, _ := unwrap(raw)
	record := newRecord(layout)
	claimed := map[string]bool{}

	switch layout.Shape {
	case NestedUnified:
		for _, group := range []Group{ComplaintGroup, ProcedureGroup} {
			existing := body[group.BlockKey()]
			if block, ok := asMap(existing); ok {
				claimed[group.BlockKey()] = true
				rc.extract(record, block, &group, nil)
				continue
			}
			// A block key holding a scalar keeps its value; the group's fields are
			// then kept at the top level, where the Denormalizer writes them.
			if existing != nil {
				rc.extract(record, body, &group, claimed)
			}
		}
	default:
		rc.extract(record, body, nil, claimed)
	}

	for key, value := range body {
		if claimed[key] {
			continue
		}
		record.UnknownFields[key] = deepcopy.Copy(value)
	}
	record.ExplicitCategory = explicitCategory(raw, body)

	rc.logger.Debug().
		Str("shape", string(layout.Shape)).
		Bool("enveloped", layout.Enveloped).
		Int("unknown_fields", len(record.UnknownFields)).
		Msg("Normalized structured content")
	return record
}

// NormalizeStored also reads the sibling attributes of a persisted record: the
// transcript, the legacy record_type tag and the record level category tag.
func (rc *Reconciler) NormalizeStored(stored *types.StoredRecord) *Record {
	if stored == nil {
		return rc.Normalize(nil)
	}
	record := rc.Normalize(stored.StructuredContent)
	record.Transcript = stored.FullTranscription
	record.LegacyType = stored.RecordType
	if record.ExplicitCategory == "" {
		record.ExplicitCategory = stored.Category
	}
	return record
}

// extract reads every alias of the given group (all groups when nil) from doc.
// Keys matching any alias are marked in claimed, including shadowed spellings.
func (rc *Reconciler) extract(record *Record, doc map[string]interface{}, group *Group, claimed map[string]bool) {
	for _, alias := range rc.table.aliases {
		if group != nil && alias.Group != *group {
			continue
		}
		if claimed != nil {
			for _, key := range alias.Keys {
				if _, ok := doc[key]; ok {
					claimed[key] = true
				}
			}
		}
		key, value, ok := alias.match(doc)
		if !ok {
			continue
		}
		record.sources[alias.Field] = key
		assign(record, alias, value)
	}
}

func assign(record *Record, alias Alias, value interface{}) {
	if alias.Field == FieldProcedures {
		record.SetProcedures(JoinList(List(value)))
		_, record.scalar[alias.Field] = value.(string)
		return
	}
	text, ok := Text(value)
	if !ok {
		return
	}
	*record.fieldPtr(alias.Field) = &text
	if alias.ListValued {
		_, record.scalar[alias.Field] = value.(string)
	}
}

func explicitCategory(raw types.RawDocument, body map[string]interface{}) string {
	if category, ok := body[CategoryKey].(string); ok && category != "" {
		return category
	}
	if category, ok := raw[CategoryKey].(string); ok {
		return category
	}
	return ""
}
