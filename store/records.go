package store

import (
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/types"
	"context"
	"encoding/json"
	"fmt"
	jsonpatch "github.com/evanphx/json-patch"
)

const RecordsDB redis.DB = 0

const emptyPatch = "{}"

type Records struct {
	client documentStore
}

// SaveResult describes a persisted change. Patch is the JSON merge patch from the
// previous structured content to the saved one and is nil when nothing changed.
type SaveResult struct {
	Patch    []byte
	Previous types.RawDocument
	Revision int
}

func (result SaveResult) Changed() bool {
	return result.Patch != nil
}

func (records Records) Get(ctx context.Context, id int64) (*types.StoredRecord, error) {
	var record types.StoredRecord
	if err := records.client.GetPartialDocument(ctx, recordKey(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveContent replaces the structured content of a record, and its transcript when
// one is given. Saving content equal to what is stored writes nothing.
func (records Records) SaveContent(
	ctx context.Context,
	id int64,
	content types.RawDocument,
	transcript *string) (result SaveResult, err error) {
	key := recordKey(id)
	releaseLock, err := records.client.Lock(ctx, key)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	var record types.StoredRecord
	if err = records.client.GetPartialDocument(ctx, key, &record); err != nil {
		return SaveResult{}, err
	}
	patch, err := contentPatch(record.StructuredContent, content)
	if err != nil {
		return SaveResult{}, err
	}
	transcriptChanged := transcript != nil && *transcript != record.FullTranscription
	if patch == nil && !transcriptChanged {
		return SaveResult{Previous: record.StructuredContent, Revision: record.Revision}, nil
	}
	if patch == nil {
		patch = []byte(emptyPatch)
	}

	result = SaveResult{
		Patch:    patch,
		Previous: record.StructuredContent,
		Revision: record.Revision + 1,
	}
	record.StructuredContent = content
	if transcript != nil {
		record.FullTranscription = *transcript
	}
	record.Revision = result.Revision
	if err = records.client.SaveDoc(ctx, key, &record); err != nil {
		return SaveResult{}, err
	}
	return result, nil
}

func contentPatch(previous, next types.RawDocument) ([]byte, error) {
	if previous == nil {
		previous = types.RawDocument{}
	}
	if next == nil {
		next = types.RawDocument{}
	}
	previousJSON, err := json.Marshal(previous)
	if err != nil {
		return nil, err
	}
	nextJSON, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("structured content is not serializable: %w", err)
	}
	patch, err := jsonpatch.CreateMergePatch(previousJSON, nextJSON)
	if err != nil {
		return nil, err
	}
	if string(patch) == emptyPatch {
		return nil, nil
	}
	return patch, nil
}
