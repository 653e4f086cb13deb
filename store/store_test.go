package store

import (
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/types"
	"vitaai.com/prontuario/utils/maps"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	docs    map[string][]byte
	saved   []string
	locks   int
	lockErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]byte{}}
}

func (m *memStore) put(t *testing.T, key, raw string) {
	t.Helper()
	require.True(t, json.Valid([]byte(raw)))
	m.docs[key] = []byte(raw)
}

func (m *memStore) raw(t *testing.T, key string) map[string]interface{} {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(m.docs[key], &raw))
	return raw
}

func (m *memStore) GetPartialDocument(_ context.Context, key string, doc maps.PartialDocument) error {
	m.mu.Lock()
	b, ok := m.docs[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", key, redis.ErrNotFound)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return maps.FillFromMap(doc, raw)
}

func (m *memStore) UpdatePartialDocument(ctx context.Context, key string, doc maps.PartialDocument, create bool, updateFunc interface{}) error {
	err := m.GetPartialDocument(ctx, key, doc)
	if errors.Is(err, redis.ErrNotFound) && create {
		err = maps.FillFromMap(doc, nil)
	}
	if err != nil {
		return err
	}
	if err = maps.ApplyUpdates(doc, updateFunc); err != nil {
		return err
	}
	return m.SaveDoc(ctx, key, doc)
}

func (m *memStore) Lock(_ context.Context, _ string) (redis.ReleaseLock, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	m.mu.Lock()
	m.locks++
	m.mu.Unlock()
	return func() error { return nil }, nil
}

func (m *memStore) SaveDoc(_ context.Context, key string, doc maps.PartialDocument) error {
	if err := maps.Sync(doc); err != nil {
		return err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = b
	m.saved = append(m.saved, key)
	return nil
}

func (m *memStore) Close() error {
	return nil
}

const storedRecord = `{
	"id": 7,
	"record_type": "anamnese",
	"clinic_id": 3,
	"revision": 2,
	"full_transcription": "paciente relata dor",
	"structured_content": {"queixa_principal": "dor", "alergias": ["dipirona"], "paciente": "Ana"}
}`

func decodeDocument(t *testing.T, raw string) types.RawDocument {
	t.Helper()
	var doc types.RawDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestRecordsGet(t *testing.T) {
	mem := newMemStore()
	mem.put(t, recordKey(7), storedRecord)
	records := Records{client: mem}

	record, err := records.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.ID)
	assert.Equal(t, "anamnese", record.RecordType)
	assert.Equal(t, 2, record.Revision)
	assert.Equal(t, "dor", record.StructuredContent["queixa_principal"])

	_, err = records.Get(context.Background(), 8)
	assert.True(t, errors.Is(err, redis.ErrNotFound))
}

func TestRecordsSaveContent(t *testing.T) {
	ctx := context.Background()

	t.Run("unchanged content writes nothing", func(t *testing.T) {
		mem := newMemStore()
		mem.put(t, recordKey(7), storedRecord)
		records := Records{client: mem}

		content := decodeDocument(t, `{"paciente": "Ana", "alergias": ["dipirona"], "queixa_principal": "dor"}`)
		result, err := records.SaveContent(ctx, 7, content, nil)
		require.NoError(t, err)
		assert.False(t, result.Changed())
		assert.Equal(t, 2, result.Revision)
		assert.Empty(t, mem.saved)
		assert.Equal(t, 1, mem.locks)
	})

	t.Run("changed content is patched and keeps siblings", func(t *testing.T) {
		mem := newMemStore()
		mem.put(t, recordKey(7), storedRecord)
		records := Records{client: mem}

		content := decodeDocument(t, `{"queixa_principal": "dor forte", "alergias": ["dipirona"], "paciente": "Ana"}`)
		result, err := records.SaveContent(ctx, 7, content, nil)
		require.NoError(t, err)
		require.True(t, result.Changed())
		assert.JSONEq(t, `{"queixa_principal": "dor forte"}`, string(result.Patch))
		assert.Equal(t, 3, result.Revision)
		assert.Equal(t, "dor", result.Previous["queixa_principal"])

		stored := mem.raw(t, recordKey(7))
		assert.Equal(t, float64(3), stored["revision"])
		assert.Equal(t, float64(3), stored["clinic_id"])
		assert.Equal(t, "paciente relata dor", stored["full_transcription"])
		assert.Equal(t, map[string]interface{}(content), stored["structured_content"])
	})

	t.Run("transcript change alone bumps the revision", func(t *testing.T) {
		mem := newMemStore()
		mem.put(t, recordKey(7), storedRecord)
		records := Records{client: mem}

		transcript := "paciente relata dor intensa"
		result, err := records.SaveContent(ctx, 7, decodeDocument(t, `{"queixa_principal": "dor", "alergias": ["dipirona"], "paciente": "Ana"}`), &transcript)
		require.NoError(t, err)
		assert.True(t, result.Changed())
		assert.Equal(t, emptyPatch, string(result.Patch))
		assert.Equal(t, transcript, mem.raw(t, recordKey(7))["full_transcription"])
	})

	t.Run("missing record", func(t *testing.T) {
		records := Records{client: newMemStore()}
		_, err := records.SaveContent(ctx, 1, types.RawDocument{}, nil)
		assert.True(t, errors.Is(err, redis.ErrNotFound))
	})

	t.Run("lock failure", func(t *testing.T) {
		mem := newMemStore()
		mem.lockErr = errors.New("busy")
		_, err := Records{client: mem}.SaveContent(ctx, 7, types.RawDocument{}, nil)
		assert.Error(t, err)
		assert.Empty(t, mem.saved)
	})
}

func TestTimelineUpdate(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	timeline := Timeline{client: mem}

	err := timeline.Update(ctx, 7, func(entry *TimelineEntry) {
		entry.Summary = "dor"
		entry.Category = "complaint-only"
		entry.Badge = "Anamnese"
		entry.CreatedAt = "2024-03-01T10:00:00Z"
		entry.Status = TimelineStatusCompletedSuccess
		entry.Attempts = 1
	})
	require.NoError(t, err)

	entry, err := timeline.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.RecordID)
	assert.Equal(t, "dor", entry.Summary)
	assert.True(t, entry.Status.Complete())

	card, err := timeline.GetCard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Anamnese", card.Badge)
	cardRaw := mem.raw(t, cardKey(7))
	assert.NotContains(t, cardRaw, "attempts")
	assert.NotContains(t, cardRaw, "status")

	err = timeline.UpdateStatus(ctx, 7, func(entry *TimelineEntry) {
		entry.Status = TimelineStatusFailed
		entry.ErrorMessages = append(entry.ErrorMessages, "boom")
	})
	require.NoError(t, err)
	entry, err = timeline.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, TimelineStatusFailed, entry.Status)
	assert.Equal(t, []string{"boom"}, entry.ErrorMessages)
	assert.Equal(t, "dor", entry.Summary)
	assert.Equal(t, []string{timelineKey(7), cardKey(7), timelineKey(7)}, sortedSaves(mem.saved))
}

func TestTimelineStatusComplete(t *testing.T) {
	assert.True(t, TimelineStatusCompletedFailure.Complete())
	assert.False(t, TimelineStatusStarted.Complete())
	assert.False(t, TimelineStatusFailed.Complete())
}

// the entry and card of one update are saved concurrently
func sortedSaves(saved []string) []string {
	out := append([]string(nil), saved...)
	if len(out) >= 2 && out[0] != timelineKey(7) {
		out[0], out[1] = out[1], out[0]
	}
	return out
}
