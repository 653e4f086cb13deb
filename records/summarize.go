package records

import (
	"strings"
)

const (
	ProceduresPrefix = "Proc: "
	NotesLimit       = 60
	Ellipsis         = "..."
	// FallbackSummary stands for a visit with nothing to extract.
	FallbackSummary = "Atendimento Registrado"
)

// Summarize picks exactly one source, in clinical priority: why the patient came,
// then what was done, then free text notes.
func Summarize(record *Record) string {
	if record == nil {
		return FallbackSummary
	}
	if complaint := deref(record.Complaint); strings.TrimSpace(complaint) != "" {
		return complaint
	}
	if procedures := JoinList(SplitList(record.ProceduresDisplay)); procedures != "" {
		return ProceduresPrefix + procedures
	}
	if notes := deref(record.ClinicalNotes); strings.TrimSpace(notes) != "" {
		return truncate(notes, NotesLimit)
	}
	return FallbackSummary
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + Ellipsis
}
