package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultQueueSize      = 256
	defaultDialTimeout    = 3 * time.Second
	defaultPublishTimeout = 5 * time.Second
)

var (
	ErrQueueFull       = errors.New("event queue is full")
	ErrPublisherClosed = errors.New("event publisher is closed")
)

// AMQPPublisher publishes events to a durable topic exchange, routed by event type.
// Publish only enqueues; a single goroutine owns the broker connection and
// delivers in order, so a slow or missing broker never holds up a request.
type AMQPPublisher struct {
	url         string
	exchange    string
	dialTimeout time.Duration

	queue     chan Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// owned by the run goroutine
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	return newAMQPPublisher(url, exchange, defaultQueueSize, defaultDialTimeout)
}

func newAMQPPublisher(url, exchange string, queueSize int, dialTimeout time.Duration) *AMQPPublisher {
	p := &AMQPPublisher{
		url:         url,
		exchange:    exchange,
		dialTimeout: dialTimeout,
		queue:       make(chan Event, queueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish hands the event to the delivery goroutine without blocking.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	select {
	case <-p.stop:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case event := <-p.queue:
			ctx, cancel := context.WithTimeout(context.Background(), defaultPublishTimeout)
			if err := p.send(ctx, event); err != nil {
				slog.Warn("failed to deliver event", "type", event.Type, "match_id", event.MatchID, "error", err)
			}
			cancel()
		}
	}
}

// channel dials lazily and redials after the broker dropped the connection.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
		if err != nil {
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) send(ctx context.Context, event Event) error {
	pub, err := publishing(event)
	if err != nil {
		return err
	}

	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// publishing builds the broker message. Every message gets its own id so
// consumers can deduplicate redeliveries without merging distinct events.
func publishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    uuid.NewString(),
		Type:         string(event.Type),
		Body:         body,
	}, nil
}

// Close stops delivery and waits for an in-flight send to finish. Events
// still queued are dropped.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() { close(p.stop) })
	<-p.done

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
