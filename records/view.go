package records

import (
	"vitaai.com/prontuario/types"
)

// View renders the record for the review screen. Every canonical field is listed,
// absent ones with a nil value.
func (r *Record) View() types.RecordView {
	category := r.Category()
	view := types.RecordView{
		Shape:             string(r.layout.Shape),
		Enveloped:         r.layout.Enveloped,
		Fields:            map[string]types.FieldView{},
		ProceduresDisplay: r.ProceduresDisplay,
		ProceduresList:    append([]string{}, r.ProceduresList...),
		Transcript:        r.Transcript,
		Category:          string(category),
		Badge:             category.Badge(),
		Summary:           r.Summary(),
		UnknownFields:     types.RawDocument(r.UnknownFields),
	}
	for _, alias := range builtinAliases {
		field := types.FieldView{Source: r.sources[alias.Field]}
		if alias.Field == FieldProcedures {
			if r.ProceduresDisplay != "" || field.Source != "" {
				display := r.ProceduresDisplay
				field.Value = &display
			}
		} else if ptr := r.fieldPtr(alias.Field); ptr != nil && *ptr != nil {
			value := **ptr
			field.Value = &value
		}
		view.Fields[string(alias.Field)] = field
	}
	return view
}

// StoredView renders a persisted record, adding its identity.
func (rc *Reconciler) StoredView(stored *types.StoredRecord) types.RecordView {
	view := rc.NormalizeStored(stored).View()
	if stored != nil {
		view.ID = stored.ID
		view.Revision = stored.Revision
		view.CreatedAt = stored.CreatedAt
	}
	return view
}
