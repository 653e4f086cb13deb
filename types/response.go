package types

// FieldView is one canonical field as shown by the review screen.
type FieldView struct {
	Value  *string `json:"value"`
	Source string  `json:"source,omitempty"`
}

// RecordView is the canonical rendering of a stored record.
type RecordView struct {
	ID                int64                `json:"id"`
	Shape             string               `json:"shape"`
	Enveloped         bool                 `json:"enveloped"`
	Fields            map[string]FieldView `json:"fields"`
	ProceduresDisplay string               `json:"procedures_display"`
	ProceduresList    []string             `json:"procedures_list"`
	Transcript        string               `json:"transcript"`
	Category          string               `json:"category"`
	Badge             string               `json:"badge"`
	Summary           string               `json:"summary"`
	UnknownFields     RawDocument          `json:"unknown_fields"`
	Revision          int                  `json:"revision"`
	CreatedAt         string               `json:"created_at,omitempty"`
}

// TimelineView is one row of the patient timeline.
type TimelineView struct {
	RecordID    int64  `json:"record_id"`
	Summary     string `json:"summary"`
	Category    string `json:"category"`
	Badge       string `json:"badge"`
	CreatedAt   string `json:"created_at"`
	Revision    int    `json:"revision"`
	ContentHash string `json:"content_hash"`
}

type SaveResponse struct {
	Record   RecordView `json:"record"`
	Changed  bool       `json:"changed"`
	Revision int        `json:"revision"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}
