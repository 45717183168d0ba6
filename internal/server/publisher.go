package server

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// KafkaConfig configures the optional report feed.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	BatchSize     int           `yaml:"batch_size"`
	FlushEvery    time.Duration `yaml:"flush_every"`
	QueueCapacity int           `yaml:"queue_capacity"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// ReportPublisher feeds accepted session reports to a Kafka topic for
// downstream analytics consumers. Publishing is asynchronous and lossy
// under pressure: a full queue drops the report rather than stalling
// report collection.
type ReportPublisher struct {
	w    *kafka.Writer
	ch   chan kafka.Message
	stop chan struct{}
}

// NewReportPublisher builds a running publisher, or nil when no brokers
// are configured.
func NewReportPublisher(cfg KafkaConfig) *ReportPublisher {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = cfg.BatchSize * 4
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	p := &ReportPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.FlushEvery,
			WriteTimeout: cfg.WriteTimeout,
		},
		ch:   make(chan kafka.Message, cfg.QueueCapacity),
		stop: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *ReportPublisher) run() {
	for {
		select {
		case msg := <-p.ch:
			if err := p.w.WriteMessages(context.Background(), msg); err != nil {
				logger.Warnf("publisher: kafka write failed: %v", err)
			}
		case <-p.stop:
			return
		}
	}
}

// Publish enqueues one report keyed by its user token. A nil publisher
// or a full queue drops it silently except for a diagnostic.
func (p *ReportPublisher) Publish(userToken string, reportJSON []byte) {
	if p == nil {
		return
	}
	msg := kafka.Message{Key: []byte(userToken), Value: reportJSON}
	select {
	case p.ch <- msg:
	default:
		logger.Warnf("publisher: queue full, report dropped")
	}
}

// Close stops the publisher and flushes the kafka writer.
func (p *ReportPublisher) Close() error {
	if p == nil {
		return nil
	}
	close(p.stop)
	return p.w.Close()
}
