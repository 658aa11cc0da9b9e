package face

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/ndn"
)

const (
	DefaultKafkaBatchBytes   = 1 << 20 // 1MB
	defaultKafkaWriteTimeout = 10 * time.Second
)

func init() {
	RegisterTransport("kafka", func(config cfg.FaceConfiguration) (Face, error) {
		return NewKafkaFace(config.Brokers, config.TopicPrefix)
	})
}

// KafkaFace attaches to the overlay through Kafka. Registration and
// withdrawal announcements go to "<prefix>.register"/"<prefix>.withdraw"
// topics; data objects go to the topic derived from their name, keyed by
// name so one prefix always lands on one partition.
type KafkaFace struct {
	writer *kafka.Writer
	prefix string
}

// NewKafkaFace creates a Kafka-backed face
func NewKafkaFace(brokers []string, topicPrefix string) (*KafkaFace, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka face requires at least one broker address")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchBytes:             DefaultKafkaBatchBytes,
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	return &KafkaFace{writer: writer, prefix: topicPrefix}, nil
}

// Register announces the prefix on the control topic
func (f *KafkaFace) Register(name string, onFailure FailureCallback) (RegisteredPrefix, error) {
	if err := f.announce("register", name); err != nil {
		return nil, fmt.Errorf("failed to register prefix %s: %w", name, err)
	}
	return &kafkaPrefix{face: f, name: name}, nil
}

// Put emits one signed data object
func (f *KafkaFace) Put(d *ndn.Data) error {
	payload, err := d.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultKafkaWriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: SubjectForName(f.prefix, d.Name),
		Key:   []byte(d.Name),
		Value: payload,
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", d.Name, err)
	}
	return nil
}

// Close releases the writer
func (f *KafkaFace) Close() error {
	if f.writer == nil {
		return nil
	}
	return f.writer.Close()
}

func (f *KafkaFace) announce(verb, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultKafkaWriteTimeout)
	defer cancel()

	return f.writer.WriteMessages(ctx, kafka.Message{
		Topic: f.prefix + "." + verb,
		Key:   []byte(name),
		Value: []byte(name),
	})
}

// kafkaPrefix withdraws at most once
type kafkaPrefix struct {
	face *KafkaFace
	name string
	once sync.Once
}

func (p *kafkaPrefix) Withdraw() {
	p.once.Do(func() {
		_ = p.face.announce("withdraw", p.name)
	})
}
