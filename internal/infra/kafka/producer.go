package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/yusay1498/vibe-coding-practice-api/internal/infra/config"
)

// Producer sends event messages through either a Sarama AsyncProducer (fire-and-forget,
// errors logged in the background) or a SyncProducer (each send waits for the broker ack).
type Producer struct {
	async  sarama.AsyncProducer
	sync   sarama.SyncProducer
	logger *zap.Logger
	cfg    config.KafkaSettings
	wg     sync.WaitGroup
}

// NewProducer connects to cfg.Brokers; cfg.Async selects the producer flavour.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	saramaConfig := saramaConfig(cfg)

	var p *Producer
	if cfg.Async {
		producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
		if err != nil {
			return nil, fmt.Errorf("create kafka async producer: %w", err)
		}
		p = newAsyncProducer(producer, cfg, logger)
	} else {
		producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
		if err != nil {
			return nil, fmt.Errorf("create kafka sync producer: %w", err)
		}
		p = newSyncProducer(producer, cfg, logger)
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
		zap.Bool("async", cfg.Async),
	)

	return p, nil
}

func saramaConfig(cfg config.KafkaSettings) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_5_0_0

	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Errors = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	if cfg.Async {
		sc.Producer.RequiredAcks = sarama.WaitForLocal
		sc.Producer.Flush.Frequency = 100 * time.Millisecond
		sc.Producer.Flush.Messages = 100
		sc.Producer.Return.Successes = false
	} else {
		sc.Producer.RequiredAcks = sarama.WaitForAll
		sc.Producer.Return.Successes = true
	}

	sc.Metadata.Retry.Max = 3
	sc.Metadata.Retry.Backoff = 250 * time.Millisecond

	return sc
}

func newAsyncProducer(producer sarama.AsyncProducer, cfg config.KafkaSettings, logger *zap.Logger) *Producer {
	p := &Producer{async: producer, cfg: cfg, logger: logger}
	p.wg.Add(1)
	go p.handleErrors()
	return p
}

func newSyncProducer(producer sarama.SyncProducer, cfg config.KafkaSettings, logger *zap.Logger) *Producer {
	return &Producer{sync: producer, cfg: cfg, logger: logger}
}

// handleErrors drains the async error channel until the producer is closed.
func (p *Producer) handleErrors() {
	defer p.wg.Done()
	for perr := range p.async.Errors() {
		if perr == nil {
			continue
		}
		p.logger.Error("Kafka producer error",
			zap.Error(perr.Err),
			zap.String("topic", perr.Msg.Topic),
		)
	}
}

// Send hands msg to the broker. With the async producer it returns once the message is queued.
func (p *Producer) Send(ctx context.Context, msg *sarama.ProducerMessage) error {
	if p.sync != nil {
		if _, _, err := p.sync.SendMessage(msg); err != nil {
			return fmt.Errorf("kafka send to %s: %w", msg.Topic, err)
		}
		return nil
	}

	select {
	case p.async.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending messages and stops the error handler.
func (p *Producer) Close() error {
	p.logger.Info("Closing Kafka producer")

	var err error
	if p.sync != nil {
		err = p.sync.Close()
	} else {
		err = p.async.Close()
		p.wg.Wait()
	}
	if err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

// TopicName returns the full topic name with prefix
func (p *Producer) TopicName(eventType string) string {
	if p.cfg.TopicPrefix == "" {
		return eventType
	}

	prefix := p.cfg.TopicPrefix + "."
	if strings.HasPrefix(eventType, prefix) {
		return eventType
	}

	return prefix + eventType
}
