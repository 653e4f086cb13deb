package worker

import (
	"vitaai.com/prontuario/store"
	"vitaai.com/prontuario/types"
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	// arguments of the last onTaskComplete call
	completedView types.TimelineView
	snapshotKey   string
}

type redisMockConfig struct {
	getRecord             withValue
	getTimelineEntry      withValue
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getRecord             bool
	getTimelineEntry      bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	notify              failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	notify              bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	saveTimelineSnapshot failingMethod
}

type s3MockCalls struct {
	saveTimelineSnapshot bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

var defaultRecord = types.StoredRecord{
	ID:                7,
	RecordType:        "evolucao",
	CreatedAt:         "2024-05-02T09:00:00Z",
	Revision:          2,
	StructuredContent: types.RawDocument{"queixa_principal": "dor", "procedimentos": []interface{}{"limpeza"}},
}

func (mock *redisMock) getRecord(recordID int64) (*types.StoredRecord, error) {
	mock.calls.getRecord = true
	if mock.config.getRecord.fail {
		return nil, errors.New("failed to get record")
	}
	switch value := mock.config.getRecord.returnedValue.(type) {
	case types.StoredRecord:
		return &value, nil
	default:
		record := defaultRecord
		return &record, nil
	}
}

func (mock *redisMock) getTimelineEntry(recordID int64) (*store.TimelineEntry, error) {
	mock.calls.getTimelineEntry = true
	if mock.config.getTimelineEntry.fail {
		return nil, errors.New("failed to get timeline entry")
	}
	switch value := mock.config.getTimelineEntry.returnedValue.(type) {
	case store.TimelineEntry:
		return &value, nil
	default:
		return &store.TimelineEntry{RecordID: recordID}, nil
	}
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update timeline entry on start")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update timeline entry on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update timeline entry on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task, snapshotKey string) error {
	mock.calls.onTaskComplete = true
	mock.completedView = task.view
	mock.snapshotKey = snapshotKey
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update timeline entry on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, vitaLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) notify(task *Task) error {
	mock.calls.notify = true
	if mock.config.notify.fail {
		return errors.New("failed to notify")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) saveTimelineSnapshot(task *Task) (string, error) {
	mock.calls.saveTimelineSnapshot = true
	if mock.config.saveTimelineSnapshot.fail {
		return "", errors.New("failed to upload snapshot")
	}
	return "records/7/timeline.json", nil
}
