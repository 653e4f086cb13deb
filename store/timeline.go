package store

import (
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/utils/maps"
	"context"
	"errors"
	"sync"
)

const TimelineDB redis.DB = 1

type TimelineStatus string

const (
	TimelineStatusStarted          TimelineStatus = "started"
	TimelineStatusFailed           TimelineStatus = "failed"
	TimelineStatusCompletedSuccess TimelineStatus = "completed - success"
	TimelineStatusCompletedFailure TimelineStatus = "completed - failure"
)

func (s TimelineStatus) Complete() bool {
	return s == TimelineStatusCompletedSuccess || s == TimelineStatusCompletedFailure
}

// TimelineEntry is the cached list row of a record together with the bookkeeping of
// the worker that computes it.
type TimelineEntry struct {
	maps.BaseDocument
	RecordID      int64          `json:"record_id"`
	Summary       string         `json:"summary"`
	Category      string         `json:"category"`
	Badge         string         `json:"badge"`
	CreatedAt     string         `json:"created_at"`
	Revision      int            `json:"revision"`
	ContentHash   string         `json:"content_hash"`
	SnapshotKey   string         `json:"snapshot_key"`
	Status        TimelineStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	StartedAt     *string        `json:"started_at"`
	CompletedAt   *string        `json:"completed_at"`
	ErrorMessages []string       `json:"error_messages"`
}

// TimelineCard is the part of a timeline entry the list screen reads.
type TimelineCard struct {
	maps.BaseDocument
	RecordID  int64  `json:"record_id"`
	Summary   string `json:"summary"`
	Category  string `json:"category"`
	Badge     string `json:"badge"`
	CreatedAt string `json:"created_at"`
}

type Timeline struct {
	client documentStore
}

func (timeline Timeline) Get(ctx context.Context, recordID int64) (*TimelineEntry, error) {
	var entry TimelineEntry
	if err := timeline.client.GetPartialDocument(ctx, timelineKey(recordID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (timeline Timeline) GetCard(ctx context.Context, recordID int64) (*TimelineCard, error) {
	var card TimelineCard
	if err := timeline.client.GetPartialDocument(ctx, cardKey(recordID), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Update applies updateFunc to the entry of a record, creating it when missing, and
// refreshes the card copy.
func (timeline Timeline) Update(ctx context.Context, recordID int64, updateFunc func(entry *TimelineEntry)) (err error) {
	key := timelineKey(recordID)
	releaseLock, err := timeline.client.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()
	var entry TimelineEntry
	var card TimelineCard

	err = timeline.client.GetPartialDocument(ctx, key, &entry)
	if errors.Is(err, redis.ErrNotFound) {
		err = maps.FillFromMap(&entry, nil)
	}
	if err != nil {
		return err
	}
	entry.RecordID = recordID
	if err = maps.ApplyUpdates(&entry, updateFunc); err != nil {
		return err
	}
	if err = maps.CopyValues(&entry, &card); err != nil {
		return err
	}
	errChan := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		errChan <- timeline.client.SaveDoc(ctx, key, &entry)
		wg.Done()
	}()
	go func() {
		errChan <- timeline.client.SaveDoc(ctx, cardKey(recordID), &card)
		wg.Done()
	}()
	wg.Wait()
	close(errChan)
	for err = range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus changes the worker bookkeeping of an entry without touching its card.
func (timeline Timeline) UpdateStatus(ctx context.Context, recordID int64, updateFunc func(entry *TimelineEntry)) error {
	var entry TimelineEntry
	return timeline.client.UpdatePartialDocument(ctx, timelineKey(recordID), &entry, true, func(entry *TimelineEntry) {
		entry.RecordID = recordID
		updateFunc(entry)
	})
}
