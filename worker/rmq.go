package worker

import (
	"vitaai.com/prontuario/rmq"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type rmqTransactions interface {
	notify(task *Task) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, vitaLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

// Notification tells downstream consumers that a timeline row changed.
type Notification struct {
	Message
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Badge    string `json:"badge"`
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func (wrapper *rmqClientWrapper) notify(task *Task) error {
	b, err := json.Marshal(newNotification(task))
	if err != nil {
		return err
	}
	return wrapper.rmqClient.SendNotification(
		amqp.Publishing{
			ContentType: "application/json",
			Body:        b,
		},
	)
}

func newNotification(task *Task) Notification {
	message := *task.message
	message.WorkType = WorkTypeTimelineUpdated
	message.Sender = SenderName
	message.Revision = task.view.Revision
	return Notification{
		Message:  message,
		Summary:  task.view.Summary,
		Category: task.view.Category,
		Badge:    task.view.Badge,
	}
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, vitaLogger *zerolog.Logger) {
	if delivery.Redelivered {
		vitaLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
		if err := delivery.Reject(false); err != nil {
			vitaLogger.Err(err).Msg("Failed to reject delivery")
		}
		return
	}
	vitaLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	if err := delivery.Reject(true); err != nil {
		vitaLogger.Err(err).Msg("Failed to requeue delivery")
	}
}
