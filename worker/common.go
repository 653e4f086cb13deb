package worker

import (
	"vitaai.com/prontuario/records"
	"vitaai.com/prontuario/types"
	"vitaai.com/prontuario/utils"
	"encoding/json"
	"fmt"
	"time"
)

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}

// contentHash fingerprints everything the timeline row is derived from. Map keys are
// sorted by encoding/json, so equal documents hash equally.
func contentHash(record *types.StoredRecord) (string, error) {
	content, err := json.Marshal(record.StructuredContent)
	if err != nil {
		return "", err
	}
	hash := utils.HashBytes(content, []byte{0}, []byte(record.RecordType), []byte{0}, []byte(record.Category))
	return fmt.Sprintf("%016x", hash), nil
}

func buildTimelineView(reconciler *records.Reconciler, stored *types.StoredRecord, hash string) types.TimelineView {
	record := reconciler.NormalizeStored(stored)
	category := record.Category()
	return types.TimelineView{
		RecordID:    stored.ID,
		Summary:     record.Summary(),
		Category:    string(category),
		Badge:       category.Badge(),
		CreatedAt:   stored.CreatedAt,
		Revision:    stored.Revision,
		ContentHash: hash,
	}
}
