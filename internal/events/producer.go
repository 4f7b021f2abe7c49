package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Writer is the part of *kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers events in memory and writes them to Kafka from a single
// goroutine. When the buffer is full, events are dropped and logged.
type Producer struct {
	w       Writer
	service string
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, service string, buf int) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, service, buf)
}

func NewProducerWithWriter(w Writer, service string, buf int) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{
		w:       w,
		service: service,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				logrus.WithFields(logrus.Fields{
					"key":   string(m.Key),
					"error": err.Error(),
				}).Error("unable to publish event")
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			logrus.WithError(err).Warn("unable to close kafka writer")
		}
	}()
}

func (p *Producer) Publish(ctx context.Context, eventType, key string, payload any) {
	env, err := NewEnvelope(p.service, eventType, key, payload)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Error("unable to encode event")
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).Error("unable to encode envelope")
		return
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	select {
	case p.inbox <- msg:
	default:
		logrus.WithField("event_type", eventType).Warn("event buffer full, dropping event")
	}
}

// Close stops accepting events and waits for buffered ones to be written.
func (p *Producer) Close() {
	close(p.inbox)
	<-p.closeCh
}
