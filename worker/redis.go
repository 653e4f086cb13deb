package worker

import (
	"vitaai.com/prontuario/redis"
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"context"
	"errors"
	"fmt"
)

type redisTransactions interface {
	getRecord(recordID int64) (*types.StoredRecord, error)
	getTimelineEntry(recordID int64) (*store.TimelineEntry, error)
	onTaskStarted(task *Task) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task, snapshotKey string) error
	close()
}

type redisClientWrapper struct {
	storeClient *store.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.storeClient.Close()
}

func (wrapper *redisClientWrapper) getRecord(recordID int64) (*types.StoredRecord, error) {
	return wrapper.storeClient.Records.Get(context.Background(), recordID)
}

// getTimelineEntry returns an empty entry for records the worker has never seen.
func (wrapper *redisClientWrapper) getTimelineEntry(recordID int64) (*store.TimelineEntry, error) {
	entry, err := wrapper.storeClient.Timeline.Get(context.Background(), recordID)
	if errors.Is(err, redis.ErrNotFound) {
		return &store.TimelineEntry{RecordID: recordID}, nil
	}
	return entry, err
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	attempt := task.attempt()
	return wrapper.storeClient.Timeline.UpdateStatus(context.Background(), task.message.RecordID, func(entry *store.TimelineEntry) {
		if entry.ContentHash != task.hash {
			entry.ErrorMessages = nil
		}
		entry.ContentHash = task.hash
		entry.Status = store.TimelineStatusStarted
		entry.Attempts = attempt
		entry.StartedAt = getFormattedNow()
		entry.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	return wrapper.storeClient.Timeline.UpdateStatus(context.Background(), task.message.RecordID, func(entry *store.TimelineEntry) {
		entry.Status = store.TimelineStatusCompletedFailure
		entry.CompletedAt = getFormattedNow()
		entry.ErrorMessages = append(
			entry.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				entry.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.storeClient.Timeline.UpdateStatus(context.Background(), task.message.RecordID, func(entry *store.TimelineEntry) {
		entry.Status = store.TimelineStatusFailed
		entry.CompletedAt = getFormattedNow()
		entry.ErrorMessages = append(entry.ErrorMessages, err.Error())
	})
}

// onTaskComplete writes the new row and its card.
func (wrapper *redisClientWrapper) onTaskComplete(task *Task, snapshotKey string) error {
	view := task.view
	return wrapper.storeClient.Timeline.Update(context.Background(), task.message.RecordID, func(entry *store.TimelineEntry) {
		entry.Summary = view.Summary
		entry.Category = view.Category
		entry.Badge = view.Badge
		entry.CreatedAt = view.CreatedAt
		entry.Revision = view.Revision
		entry.ContentHash = view.ContentHash
		entry.SnapshotKey = snapshotKey
		entry.Status = store.TimelineStatusCompletedSuccess
		entry.CompletedAt = getFormattedNow()
	})
}
