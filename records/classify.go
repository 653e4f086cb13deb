package records

import (
	"strings"
)

type Category string

const (
	ComplaintOnly Category = "complaint-only"
	ProcedureOnly Category = "procedure-only"
	Combined      Category = "combined"
	Unknown       Category = "unknown"
)

// Values of the "categoria" key written by newer records.
var explicitCategories = map[string]Category{
	"anamnese": ComplaintOnly,
	"evolucao": ProcedureOnly,
	"completo": Combined,
}

// Values of the single-type record_type tag carried by older records.
var legacyTypes = map[string]Category{
	"anamnese": ComplaintOnly,
	"evolucao": ProcedureOnly,
}

// Classify prefers an explicit category tag over anything inferred from the fields.
// The legacy record_type tag is only consulted when no group is populated.
func Classify(record *Record, explicitCategory string) Category {
	if category, ok := explicitCategories[explicitCategory]; ok {
		return category
	}
	if record == nil {
		return Unknown
	}
	complaint := record.populated(ComplaintGroup)
	procedure := record.populated(ProcedureGroup)
	switch {
	case complaint && procedure:
		return Combined
	case complaint:
		return ComplaintOnly
	case procedure:
		return ProcedureOnly
	}
	if category, ok := legacyTypes[strings.ToLower(strings.TrimSpace(record.LegacyType))]; ok {
		return category
	}
	return Unknown
}

// Badge is the label list rows and timeline entries show for the category.
func (c Category) Badge() string {
	switch c {
	case ComplaintOnly:
		return "Anamnese"
	case ProcedureOnly:
		return "Evolução"
	case Combined:
		return "Completo"
	}
	return "Atendimento"
}
