// Package events publishes a message for each stored circular so
// downstream consumers can react without polling the store.
package events

import (
	"encoding/json"
	"fmt"
	"log"

	"rbitracker/types"

	"github.com/IBM/sarama"
)

// Publisher emits stored-circular events. Implementations must not
// fail the pipeline: publication is best-effort reporting.
type Publisher interface {
	PublishStored(event types.StoredEvent) error
	Close() error
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher implements Publisher with a sarama sync producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a producer that waits for full-ISR acks.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	log.Printf("Kafka publisher started (topic: %s)", cfg.Topic)
	return &KafkaPublisher{producer: producer, topic: cfg.Topic}, nil
}

// PublishStored sends the event keyed by the record's storage key so
// repeated ingestions of the same circular land on one partition.
func (p *KafkaPublisher) PublishStored(event types.StoredEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stored event: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SourceDocumentRef),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish stored event: %w", err)
	}
	return nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
