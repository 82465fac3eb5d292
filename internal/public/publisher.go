// v2
// internal/public/publisher.go
// Package public asynchronously publishes journal-worthy transitions to Kafka
// so external consumers can follow appliance flips without polling the API.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"

	"homesim/internal/metrics"
	"homesim/internal/models"
)

// Config carries the runtime options for transition publishing. Leaving Brokers
// empty disables the publisher entirely.
type Config struct {
	Brokers []string
	Topic   string
}

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaWriteCloser interface {
	Close() error
}

const queueSize = 256

var errNilLogger = errors.New("publisher requires a logger")

// Publisher queues transitions and delivers them from a background loop. The
// tick path never blocks on the broker: a full queue drops the message and
// counts it.
type Publisher struct {
	cfg     Config
	log     *slog.Logger
	writer  kafkaMessageWriter
	closer  kafkaWriteCloser
	enabled bool
	queue   chan models.Transition
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// New constructs a Publisher backed by a Kafka writer. With no brokers
// configured it returns a disabled publisher whose Publish is a no-op.
func New(cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		return nil, errNilLogger
	}
	if len(cfg.Brokers) == 0 || strings.TrimSpace(cfg.Topic) == "" {
		log.Info("transition publisher disabled")
		return &Publisher{cfg: cfg, log: log}, nil
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	return newWithWriter(cfg, log, w, w), nil
}

// newWithWriter wires the provided writer into the publisher. Used in tests.
func newWithWriter(cfg Config, log *slog.Logger, writer kafkaMessageWriter, closer kafkaWriteCloser) *Publisher {
	return &Publisher{
		cfg:     cfg,
		log:     log.With("component", "transition_publisher"),
		writer:  writer,
		closer:  closer,
		enabled: true,
		queue:   make(chan models.Transition, queueSize),
	}
}

// Start launches the delivery loop. No-op when disabled.
func (p *Publisher) Start(ctx context.Context) {
	if !p.enabled {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(runCtx)
	p.log.Info("transition publisher started", "topic", p.cfg.Topic)
}

// Publish enqueues a transition for asynchronous delivery.
func (p *Publisher) Publish(t models.Transition) {
	if !p.enabled {
		return
	}
	select {
	case p.queue <- t:
	default:
		metrics.IncPublish("dropped")
		p.log.Warn("publish queue full, dropping", "roomId", t.RoomID, "appliance", t.Appliance)
	}
}

func (p *Publisher) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.queue:
			p.deliver(ctx, t)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, t models.Transition) {
	b, err := json.Marshal(t)
	if err != nil {
		metrics.IncPublish("marshal_error")
		p.log.Error("marshal failed", "err", err)
		return
	}
	key := t.RoomID + "/" + t.Appliance
	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: t.Timestamp})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.IncPublish("error")
		p.log.Error("kafka write failed", "err", err, "key", key)
		return
	}
	metrics.IncPublish("ok")
}

// Stop drains the loop and closes the writer.
func (p *Publisher) Stop(ctx context.Context) {
	if !p.enabled {
		return
	}
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
		}
		if p.closer != nil {
			if err := p.closer.Close(); err != nil {
				p.log.Error("writer close failed", "err", err)
			}
		}
		p.log.Info("transition publisher stopped")
	})
}
