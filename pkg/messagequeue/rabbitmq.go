package messagequeue

import (
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQPublisher implements the Publisher interface using RabbitMQ.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewRabbitMQPublisherConfig contains options for creating a new
// RabbitMQPublisher.
type NewRabbitMQPublisherConfig struct {
	URL string
}

// NewRabbitMQPublisher connects to RabbitMQ and opens a channel.
func NewRabbitMQPublisher(cfg NewRabbitMQPublisherConfig, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", zap.Error(err))
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a RabbitMQ channel", zap.Error(err))
		conn.Close()
		return nil, err
	}

	logger.Info("Connected to RabbitMQ and opened a channel")
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish sends a message to a RabbitMQ queue. The queue is declared
// durable so auth events survive a broker restart.
func (s *RabbitMQPublisher) Publish(queueName string, body []byte) error {
	q, err := s.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		s.logger.Warn("Failed to declare queue", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	err = s.channel.Publish(
		"",     // exchange
		q.Name, // routing key (queue name)
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		})
	if err != nil {
		s.logger.Warn("Failed to publish message", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (s *RabbitMQPublisher) Close() error {
	var lastErr error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Warn("Error closing RabbitMQ channel", zap.Error(err))
			lastErr = err
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Warn("Error closing RabbitMQ connection", zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
