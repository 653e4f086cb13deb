package worker

import (
	"vitaai.com/prontuario/logger"
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"vitaai.com/prontuario/utils"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const (
	WorkTypeRecordSaved     = "record.saved"
	WorkTypeTimelineUpdated = "timeline.updated"
	SenderName              = "timeline"
)

type Message struct {
	RecordID  int64  `json:"record_id"`
	WorkType  string `json:"work_type"`
	Sender    string `json:"sender"`
	Version   string `json:"version"`
	Revision  int    `json:"revision,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Task struct {
	delivery   *amqp.Delivery
	message    *Message
	record     *types.StoredRecord
	entry      *store.TimelineEntry
	hash       string
	view       types.TimelineView
	vitaLogger *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.vitaLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.vitaLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	updated, err := worker.processTask(task)
	if err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if updated {
		if err = worker.rmq.notify(task); err != nil {
			task.vitaLogger.Err(err).Msg("Got error while sending message to notify queue")
			worker.rmq.rejectDelivery(delivery, &rejectLogger)
			return
		}
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.vitaLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.vitaLogger.Info().Bool("updated", updated).Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	if message.RecordID <= 0 {
		return nil, fmt.Errorf("message has no record id")
	}
	record, err := worker.redis.getRecord(message.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record %d, got error %w", message.RecordID, err)
	}
	entry, err := worker.redis.getTimelineEntry(message.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline entry %d, got error %w", message.RecordID, err)
	}
	hash, err := contentHash(record)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint record %d, got error %w", message.RecordID, err)
	}
	taskLogger := logger.ForRecord(*worker.vitaLogger, message.RecordID).With().
		Str("request_id", message.RequestID).
		Logger()
	return &Task{
		delivery:   delivery,
		message:    &message,
		record:     record,
		entry:      entry,
		hash:       hash,
		vitaLogger: &taskLogger,
	}, nil
}

// processTask reports whether the timeline entry was rewritten. Errors mean the
// delivery should be rejected.
func (worker *Worker) processTask(task *Task) (bool, error) {
	if !worker.shouldPerformTask(task) {
		return false, nil
	}
	if task.sameContent() && task.entry.Attempts >= worker.config.TaskMaxRetries {
		task.vitaLogger.Info().Msg("Timeline task has exceeded retries, giving up on this content")
		return false, worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
	}
	if err := worker.redis.onTaskStarted(task); err != nil {
		task.vitaLogger.Err(err).Msg("Failed to update timeline entry")
		return false, fmt.Errorf("failed to update timeline entry: %w", err)
	}
	snapshotKey, err := worker.runTimeline(task)
	if err != nil {
		task.vitaLogger.Err(err).Msg("Got error while building timeline entry")
		if updateErr := worker.redis.onTaskFailedWithError(task, err); updateErr != nil {
			return false, updateErr
		}
		return false, err
	}
	task.vitaLogger.Info().Msg("Saved snapshot, marking timeline entry as complete")
	if err = worker.redis.onTaskComplete(task, snapshotKey); err != nil {
		task.vitaLogger.Err(err).Msg("Got error while trying to mark timeline entry as complete")
		return false, err
	}
	return true, nil
}

func (worker *Worker) runTimeline(task *Task) (snapshotKey string, err error) {
	defer utils.RecoverWithError(&err)
	task.vitaLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.attempt())
	task.view = buildTimelineView(worker.reconciler, task.record, task.hash)
	snapshotKey, err = worker.s3.saveTimelineSnapshot(task)
	if err != nil {
		task.vitaLogger.Err(err).Msg("Got error while trying to save timeline snapshot")
		return "", err
	}
	return snapshotKey, nil
}

// shouldPerformTask skips content whose timeline entry is already complete.
func (worker *Worker) shouldPerformTask(task *Task) bool {
	if task.sameContent() && task.entry.Status == store.TimelineStatusCompletedSuccess {
		task.vitaLogger.Info().Msg("Timeline entry already matches the stored content")
		return false
	}
	if task.sameContent() && task.entry.Status == store.TimelineStatusCompletedFailure {
		task.vitaLogger.Info().Msg("Timeline entry already failed for this content")
		return false
	}
	return true
}

func (task *Task) sameContent() bool {
	return task.entry != nil && task.entry.ContentHash == task.hash
}

// attempt is the number the current run will be recorded under.
func (task *Task) attempt() int {
	if task.sameContent() {
		return task.entry.Attempts + 1
	}
	return 1
}
