package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const TypeMeasurementRecorded = "measurement.recorded"

var errNotConnected = errors.New("not connected to a broker")

// MeasurementRecorded is published after a measurement has been stored.
type MeasurementRecorded struct {
	EventID       string    `json:"event_id"`
	MeasurementID uint      `json:"measurement_id"`
	PatientID     uint      `json:"patient_id"`
	DeviceID      uint      `json:"device_id"`
	Category      string    `json:"category"`
	MeasuredAt    time.Time `json:"measured_at"`
}

func NewMeasurementRecorded(m model.Measurement) MeasurementRecorded {
	return MeasurementRecorded{
		EventID:       uuid.NewString(),
		MeasurementID: m.ID,
		PatientID:     m.PatientID,
		DeviceID:      m.DeviceID,
		Category:      m.Category,
		MeasuredAt:    m.MeasuredAt,
	}
}

type Publisher interface {
	PublishMeasurementRecorded(ctx context.Context, m model.Measurement) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishMeasurementRecorded(context.Context, model.Measurement) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel Channel
	queue   string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// DialAMQP connects to the broker at url and declares a durable queue.
func DialAMQP(url, queue string, log *zap.SugaredLogger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	p := NewAMQPPublisher(ch, queue, log)
	p.conn = conn
	log.Infof("Connected to broker, publishing to queue %s", queue)
	return p, nil
}

// NewAMQPPublisher publishes on an already opened channel.
func NewAMQPPublisher(ch Channel, queue string, log *zap.SugaredLogger) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, queue: queue, timeout: 5 * time.Second, log: log}
}

func (p *AMQPPublisher) PublishMeasurementRecorded(ctx context.Context, m model.Measurement) error {
	event := NewMeasurementRecorded(m)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return errNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Type:         TypeMeasurementRecorded,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", TypeMeasurementRecorded, err)
	}
	p.log.Debugw("event published", "type", TypeMeasurementRecorded, "event_id", event.EventID, "measurement_id", m.ID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
		p.channel = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
