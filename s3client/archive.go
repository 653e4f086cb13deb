package s3client

import (
	"context"
	"encoding/json"
)

// Revision is the archived form of one save: the content it replaced and the merge
// patch that turns that content into the saved one.
type Revision struct {
	RecordID        int64                  `json:"record_id"`
	Revision        int                    `json:"revision"`
	SavedAt         string                 `json:"saved_at"`
	RequestID       string                 `json:"request_id,omitempty"`
	PreviousContent map[string]interface{} `json:"previous_content"`
	Patch           json.RawMessage        `json:"patch"`
}

func (client Client) ArchiveRevision(ctx context.Context, revision Revision) (string, error) {
	key := RevisionKey(revision.RecordID, revision.Revision)
	return key, client.UploadJSON(ctx, key, revision)
}
