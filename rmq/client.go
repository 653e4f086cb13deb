package rmq

import (
	"vitaai.com/prontuario/logger"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                    string `envconfig:"VITA_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"VITA_RMQ_PORT" required:"true"`
	Username                string `envconfig:"VITA_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"VITA_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"VITA_RMQ_EXCHANGE" default:"vita-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"VITA_RMQ_MAX_PARALLEL_REQUESTS" default:"5"`
	TimelineTaskQueue       string `envconfig:"VITA_TIMELINE_TASK_QUEUE" default:"record.saved"`
	TimelineNotifyQueue     string `envconfig:"VITA_TIMELINE_NOTIFY_QUEUE" default:"timeline.updated"`
}

// Client consumes timeline tasks on one connection and publishes notifications on
// another.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	vitaLogger     *zerolog.Logger
}

// Publisher only sends timeline tasks. The API uses it after a changed save.
type Publisher struct {
	config  Config
	conn    *amqp.Connection
	channel *amqp.Channel
}

func readConfig(vitaLogger *zerolog.Logger) (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		vitaLogger.Error().Err(err).Msg("Could not read env config")
		return config, err
	}
	return config, nil
}

func NewClient() (*Client, error) {
	vitaLogger := logger.NewLogger("RMQ client")
	config, err := readConfig(&vitaLogger)
	if err != nil {
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	closeAll := func() {
		_ = reqConn.Close()
		_ = respConn.Close()
	}

	q, err := declare(reqChannel, config, config.TimelineTaskQueue)
	if err != nil {
		closeAll()
		return nil, err
	}
	if _, err := declare(respChannel, config, config.TimelineNotifyQueue); err != nil {
		closeAll()
		return nil, err
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(
		q.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	reqChanErrors := reqChannel.NotifyClose(make(chan *amqp.Error, 1))
	respChanErrors := respChannel.NotifyClose(make(chan *amqp.Error, 1))

	vitaLogger.Info().Str("queue", q.Name).Msg("Consuming timeline tasks")
	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChanErrors,
		RespChanErrors: respChanErrors,
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		vitaLogger:     &vitaLogger,
	}, nil
}

func (c *Client) SendNotification(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.TimelineNotifyQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func NewPublisher() (*Publisher, error) {
	vitaLogger := logger.NewLogger("RMQ publisher")
	config, err := readConfig(&vitaLogger)
	if err != nil {
		return nil, err
	}
	conn, channel, err := setup(getURL(config))
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	if _, err := declare(channel, config, config.TimelineTaskQueue); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{config: config, conn: conn, channel: channel}, nil
}

func (p *Publisher) SendTimelineTask(msg amqp.Publishing) error {
	return p.channel.Publish(
		p.config.Exchange,
		p.config.TimelineTaskQueue,
		false,
		false,
		msg)
}

func (p *Publisher) Close() {
	_ = p.conn.Close()
}

// declare makes sure a durable queue exists and is bound to the exchange under its
// own name.
func declare(channel *amqp.Channel, config Config, name string) (amqp.Queue, error) {
	q, err := channel.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare %s: %w", name, err)
	}
	if err := channel.QueueBind(name, name, config.Exchange, false, nil); err != nil {
		return amqp.Queue{}, fmt.Errorf("bind %s: %w", name, err)
	}
	return q, nil
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
