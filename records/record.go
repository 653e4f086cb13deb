package records

import (
	"github.com/mohae/deepcopy"
	"strings"
)

// Record is the canonical, version independent view of a structured_content
// document. It is built fresh on every load and edited in place by forms.
type Record struct {
	Complaint      *string `json:"complaint,omitempty"`
	PresentIllness *string `json:"presentIllness,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
	Allergies      *string `json:"allergies,omitempty"`
	Medications    *string `json:"medications,omitempty"`
	ClinicalNotes  *string `json:"clinicalNotes,omitempty"`
	Tooth          *string `json:"tooth,omitempty"`
	NextSteps      *string `json:"nextSteps,omitempty"`

	// ProceduresDisplay is what forms edit; ProceduresList is what gets persisted.
	ProceduresDisplay string   `json:"proceduresDisplay"`
	ProceduresList    []string `json:"proceduresList"`

	Transcript       string `json:"transcript"`
	ExplicitCategory string `json:"explicitCategory,omitempty"`
	LegacyType       string `json:"legacyType,omitempty"`

	UnknownFields map[string]interface{} `json:"unknownFields"`

	layout  Layout
	sources map[Field]string
	// scalar marks list valued fields that were persisted as a single string.
	scalar map[Field]bool
}

// Edits is a set of form changes. Nil pointers leave the field untouched; an empty
// string clears it.
type Edits struct {
	Complaint      *string `json:"complaint,omitempty"`
	PresentIllness *string `json:"presentIllness,omitempty"`
	MedicalHistory *string `json:"medicalHistory,omitempty"`
	Allergies      *string `json:"allergies,omitempty"`
	Medications    *string `json:"medications,omitempty"`
	ClinicalNotes  *string `json:"clinicalNotes,omitempty"`
	Tooth          *string `json:"tooth,omitempty"`
	NextSteps      *string `json:"nextSteps,omitempty"`
	Procedures     *string `json:"procedures,omitempty"`
	Transcript     *string `json:"transcript,omitempty"`

	UnknownFields map[string]interface{} `json:"unknownFields,omitempty"`
}

func newRecord(layout Layout) *Record {
	return &Record{
		ProceduresList: []string{},
		UnknownFields:  map[string]interface{}{},
		layout:         layout,
		sources:        map[Field]string{},
		scalar:         map[Field]bool{},
	}
}

func (r *Record) Layout() Layout {
	return r.layout
}

// Source is the document key a field was read from, empty when it was absent.
func (r *Record) Source(field Field) string {
	return r.sources[field]
}

// Category is recomputed on every call so it always reflects the current fields.
func (r *Record) Category() Category {
	return Classify(r, r.ExplicitCategory)
}

func (r *Record) Summary() string {
	return Summarize(r)
}

// SetProcedures stores display text and keeps the persisted list consistent with it.
func (r *Record) SetProcedures(display string) {
	r.ProceduresList = SplitList(display)
	r.ProceduresDisplay = JoinList(r.ProceduresList)
}

// Text returns the editable text of a field; procedures come back as display text.
func (r *Record) Text(field Field) string {
	if field == FieldProcedures {
		return r.ProceduresDisplay
	}
	if ptr := r.fieldPtr(field); ptr != nil {
		return deref(*ptr)
	}
	return ""
}

func (r *Record) Apply(edits Edits) {
	set := func(field Field, value *string) {
		if value == nil {
			return
		}
		v := *value
		*r.fieldPtr(field) = &v
	}
	set(FieldComplaint, edits.Complaint)
	set(FieldPresentIllness, edits.PresentIllness)
	set(FieldMedicalHistory, edits.MedicalHistory)
	set(FieldAllergies, edits.Allergies)
	set(FieldMedications, edits.Medications)
	set(FieldClinicalNotes, edits.ClinicalNotes)
	set(FieldTooth, edits.Tooth)
	set(FieldNextSteps, edits.NextSteps)
	if edits.Procedures != nil {
		r.SetProcedures(*edits.Procedures)
	}
	if edits.Transcript != nil {
		r.Transcript = *edits.Transcript
	}
	if r.UnknownFields == nil && len(edits.UnknownFields) > 0 {
		r.UnknownFields = map[string]interface{}{}
	}
	for key, value := range edits.UnknownFields {
		r.UnknownFields[key] = deepcopy.Copy(value)
	}
}

func (r *Record) populated(group Group) bool {
	for _, alias := range builtinAliases {
		if alias.Group != group {
			continue
		}
		if alias.Field == FieldProcedures {
			if len(SplitList(r.ProceduresDisplay)) > 0 {
				return true
			}
			continue
		}
		if strings.TrimSpace(r.Text(alias.Field)) != "" {
			return true
		}
	}
	return false
}

func (r *Record) fieldPtr(field Field) **string {
	switch field {
	case FieldComplaint:
		return &r.Complaint
	case FieldPresentIllness:
		return &r.PresentIllness
	case FieldMedicalHistory:
		return &r.MedicalHistory
	case FieldAllergies:
		return &r.Allergies
	case FieldMedications:
		return &r.Medications
	case FieldClinicalNotes:
		return &r.ClinicalNotes
	case FieldTooth:
		return &r.Tooth
	case FieldNextSteps:
		return &r.NextSteps
	}
	return nil
}
