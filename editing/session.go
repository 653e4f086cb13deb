package editing

import (
	"vitaai.com/prontuario/records"
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"context"
	"errors"
	"fmt"
	"github.com/mohae/deepcopy"
)

var ErrSessionClosed = errors.New("editing session already saved")

type Fetcher interface {
	Get(ctx context.Context, id int64) (*types.StoredRecord, error)
}

type Saver interface {
	SaveContent(ctx context.Context, id int64, content types.RawDocument, transcript *string) (store.SaveResult, error)
}

// Session holds one record being edited. Original is a private copy of the stored
// content taken at load time; Record is normalized from it and receives the edits.
type Session struct {
	RecordID  int64
	CreatedAt string
	Original  types.RawDocument
	Record    *records.Record

	reconciler       *records.Reconciler
	transcriptEdited bool
	closed           bool
}

// Load fetches a record and starts a fresh session for it. A nil reconciler uses the
// built-in alias table.
func Load(ctx context.Context, fetcher Fetcher, reconciler *records.Reconciler, id int64) (*Session, error) {
	stored, err := fetcher.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not load record %d: %w", id, err)
	}
	if reconciler == nil {
		reconciler = records.NewReconciler(nil)
	}
	original, _ := deepcopy.Copy(stored.StructuredContent).(types.RawDocument)
	return &Session{
		RecordID:   id,
		CreatedAt:  stored.CreatedAt,
		Original:   original,
		Record:     reconciler.NormalizeStored(stored),
		reconciler: reconciler,
	}, nil
}

func (s *Session) Apply(edits records.Edits) {
	if edits.Transcript != nil {
		s.transcriptEdited = true
	}
	s.Record.Apply(edits)
}

// Payload is the structured content that saving the session would persist.
func (s *Session) Payload() types.RawDocument {
	return s.reconciler.Denormalize(s.Original, s.Record)
}

// Save persists the session once. Later calls fail with ErrSessionClosed; a new
// session has to be loaded to edit again.
func (s *Session) Save(ctx context.Context, saver Saver) (store.SaveResult, error) {
	if s.closed {
		return store.SaveResult{}, ErrSessionClosed
	}
	var transcript *string
	if s.transcriptEdited {
		transcript = &s.Record.Transcript
	}
	result, err := saver.SaveContent(ctx, s.RecordID, s.Payload(), transcript)
	if err != nil {
		return store.SaveResult{}, fmt.Errorf("could not save record %d: %w", s.RecordID, err)
	}
	s.closed = true
	return result, nil
}
