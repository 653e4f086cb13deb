package types

import (
	"vitaai.com/prontuario/utils/maps"
)

// RawDocument is a structured_content tree as decoded from JSON.
type RawDocument map[string]interface{}

// StoredRecord is a persisted medical record. Unknown sibling keys are kept in the
// embedded raw map and survive a read-modify-write.
type StoredRecord struct {
	maps.BaseDocument
	ID                int64       `json:"id"`
	RecordType        string      `json:"record_type"`
	Category          string      `json:"categoria"`
	StructuredContent RawDocument `json:"structured_content"`
	FullTranscription string      `json:"full_transcription"`
	CreatedAt         string      `json:"created_at"`
	Revision          int         `json:"revision"`
}
