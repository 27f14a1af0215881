package kafka_archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/user/frontier-crawler/internal/repository"
)

//go:generate mockgen -destination=../../mocks/mock_kafka.go -package=mocks github.com/user/frontier-crawler/internal/adapter/kafka_archiver MessageWriter

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PageMessage is the JSON value of every published record.
type PageMessage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	ArchivedAt time.Time `json:"archived_at"`
}

// KafkaArchiver publishes each page as one message keyed by its URL, so a compacted topic keeps
// the latest render of every page.
type KafkaArchiver struct {
	writer MessageWriter
}

// NewKafkaArchiver creates an archiver for the given brokers and topic.
func NewKafkaArchiver(brokers []string, topic string) *KafkaArchiver {
	return &KafkaArchiver{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: false,
		},
	}
}

// NewArchiverWithWriter builds an archiver using a custom writer (tests).
func NewArchiverWithWriter(writer MessageWriter) *KafkaArchiver {
	return &KafkaArchiver{writer: writer}
}

func (a *KafkaArchiver) Save(ctx context.Context, url, html string) error {
	now := time.Now().UTC()
	payload, err := json.Marshal(PageMessage{URL: url, HTML: html, ArchivedAt: now})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrArchiveFailed, url, err)
	}

	msg := kafka.Message{
		Key:   []byte(url),
		Value: payload,
		Time:  now,
	}
	if err := a.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s: %w", repository.ErrArchiveFailed, url, err)
	}
	return nil
}

// Close flushes and shuts down the underlying writer.
func (a *KafkaArchiver) Close() error {
	return a.writer.Close()
}
