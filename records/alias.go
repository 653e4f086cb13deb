package records

import (
	"fmt"
	"strings"
)

type Field string

const (
	FieldComplaint      Field = "complaint"
	FieldPresentIllness Field = "presentIllness"
	FieldMedicalHistory Field = "medicalHistory"
	FieldAllergies      Field = "allergies"
	FieldMedications    Field = "medications"
	FieldProcedures     Field = "procedures"
	FieldClinicalNotes  Field = "clinicalNotes"
	FieldTooth          Field = "tooth"
	FieldNextSteps      Field = "nextSteps"
)

// Group is the logical block a canonical field belongs to. In nested-unified
// documents every group lives under its own block key.
type Group int

const (
	ComplaintGroup Group = iota
	ProcedureGroup
)

const (
	ComplaintBlockKey = "anamnese"
	ProcedureBlockKey = "evolucao"
	EnvelopeKey       = "data"
	CategoryKey       = "categoria"
)

func (g Group) BlockKey() string {
	if g == ProcedureGroup {
		return ProcedureBlockKey
	}
	return ComplaintBlockKey
}

func (g Group) String() string {
	if g == ProcedureGroup {
		return "procedure"
	}
	return "complaint"
}

// Alias lists every historical key spelling of one canonical field, by precedence.
type Alias struct {
	Field Field
	Group Group
	Keys  []string
	// ListValued fields are persisted as lists of strings.
	ListValued bool
}

// Keys are matched exactly as they were spelled in persisted data. New spellings
// go through Table.Extend, never through case folding.
var builtinAliases = []Alias{
	{Field: FieldComplaint, Group: ComplaintGroup, Keys: []string{"queixa_principal", "queixaPrincipal"}},
	{Field: FieldPresentIllness, Group: ComplaintGroup, Keys: []string{"historia_doenca_atual", "historiaDoencaAtual"}},
	{Field: FieldMedicalHistory, Group: ComplaintGroup, Keys: []string{"historico_medico", "historicoMedico"}},
	{Field: FieldAllergies, Group: ComplaintGroup, Keys: []string{"alergias"}, ListValued: true},
	{Field: FieldMedications, Group: ComplaintGroup, Keys: []string{"medicamentos"}, ListValued: true},
	{Field: FieldProcedures, Group: ProcedureGroup, Keys: []string{"procedimentos", "procedimentos_realizados", "procedimentosRealizados"}, ListValued: true},
	{Field: FieldClinicalNotes, Group: ProcedureGroup, Keys: []string{"observacoes", "clinical_notes", "clinicalValues"}},
	{Field: FieldTooth, Group: ProcedureGroup, Keys: []string{"dente"}},
	{Field: FieldNextSteps, Group: ProcedureGroup, Keys: []string{"proximos_passos", "proximosPassos"}},
}

// Table is an immutable alias table.
type Table struct {
	aliases []Alias
	byKey   map[string]Field
	byField map[Field]int
}

var defaultTable = mustTable(builtinAliases)

func DefaultTable() *Table {
	return defaultTable
}

func mustTable(aliases []Alias) *Table {
	table, err := newTable(aliases)
	if err != nil {
		panic(err)
	}
	return table
}

func newTable(aliases []Alias) (*Table, error) {
	table := Table{
		aliases: make([]Alias, len(aliases)),
		byKey:   make(map[string]Field),
		byField: make(map[Field]int, len(aliases)),
	}
	for i, alias := range aliases {
		alias.Keys = append([]string(nil), alias.Keys...)
		if len(alias.Keys) == 0 {
			return nil, fmt.Errorf("field %s has no keys", alias.Field)
		}
		for _, key := range alias.Keys {
			if owner, ok := table.byKey[key]; ok {
				return nil, fmt.Errorf("key %q is claimed by both %s and %s", key, owner, alias.Field)
			}
			if key == ComplaintBlockKey || key == ProcedureBlockKey || key == EnvelopeKey || key == CategoryKey {
				return nil, fmt.Errorf("key %q is reserved", key)
			}
			table.byKey[key] = alias.Field
		}
		table.aliases[i] = alias
		table.byField[alias.Field] = i
	}
	return &table, nil
}

// Extend returns a new table with the given key spellings appended after the
// existing ones. The receiver is left untouched.
func (t *Table) Extend(extra map[string][]string) (*Table, error) {
	aliases := make([]Alias, len(t.aliases))
	copy(aliases, t.aliases)
	for name, keys := range extra {
		idx, ok := t.byField[Field(name)]
		if !ok {
			return nil, fmt.Errorf("unknown canonical field %q", name)
		}
		merged := append([]string(nil), aliases[idx].Keys...)
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" || containsString(merged, key) {
				continue
			}
			merged = append(merged, key)
		}
		aliases[idx].Keys = merged
	}
	return newTable(aliases)
}

func (t *Table) Aliases() []Alias {
	out := make([]Alias, len(t.aliases))
	copy(out, t.aliases)
	return out
}

func (t *Table) Lookup(field Field) (Alias, bool) {
	idx, ok := t.byField[field]
	if !ok {
		return Alias{}, false
	}
	return t.aliases[idx], true
}

// FieldForKey reports which canonical field claims a document key.
func (t *Table) FieldForKey(key string) (Field, bool) {
	field, ok := t.byKey[key]
	return field, ok
}

// match returns the first key, by precedence, that holds a non-empty value. When
// every spelling present is empty the first present one is returned so the field is
// still reported as provided.
func (alias Alias) match(doc map[string]interface{}) (string, interface{}, bool) {
	firstKey := ""
	var firstValue interface{}
	for _, key := range alias.Keys {
		value, ok := doc[key]
		if !ok {
			continue
		}
		if !isBlank(value) {
			return key, value, true
		}
		if firstKey == "" {
			firstKey, firstValue = key, value
		}
	}
	if firstKey == "" {
		return "", nil, false
	}
	return firstKey, firstValue, true
}

func groupOf(field Field) Group {
	if alias, ok := defaultTable.Lookup(field); ok {
		return alias.Group
	}
	return ComplaintGroup
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
