package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	kafka "github.com/segmentio/kafka-go"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/model"
	"github.com/k1s0-platform/system-server-go-profile/internal/infra/config"
)

// messageWriter は Kafka Writer の抽象インターフェース。
// テスト時にモックへ差し替え可能にする。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...writerMessage) error
	Close() error
}

// writerMessage は Kafka に送信するメッセージを表す。
type writerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	EventType string
}

// kafkaGoWriter は kafka-go の Writer をラップする本番実装。
type kafkaGoWriter struct {
	w *kafka.Writer
}

func (k *kafkaGoWriter) WriteMessages(ctx context.Context, msgs ...writerMessage) error {
	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		kafkaMsgs[i] = kafka.Message{
			Topic: m.Topic,
			Key:   m.Key,
			Value: m.Value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(m.EventType)},
			},
		}
	}
	return k.w.WriteMessages(ctx, kafkaMsgs...)
}

func (k *kafkaGoWriter) Close() error {
	return k.w.Close()
}

type dialFunc func(ctx context.Context, address string) (io.Closer, error)

func kafkaDial(ctx context.Context, address string) (io.Closer, error) {
	return kafka.DialContext(ctx, "tcp", address)
}

// KafkaProducer はプロフィールイベントを Kafka に配信するプロデューサー。
// usecase.ProfileEventPublisher インターフェースを実装する。
type KafkaProducer struct {
	writer  messageWriter
	topic   string
	brokers []string
	dial    dialFunc
}

// NewKafkaProducer は新しい KafkaProducer を作成する。
func NewKafkaProducer(cfg config.KafkaConfig) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{
		writer:  &kafkaGoWriter{w: w},
		topic:   cfg.Topic,
		brokers: cfg.Brokers,
		dial:    kafkaDial,
	}
}

// Publish はプロフィールイベントを配信する。同一プロフィールのイベントは同じパーティションに入る。
func (p *KafkaProducer) Publish(ctx context.Context, event *model.ProfileEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize profile event: %w", err)
	}

	msg := writerMessage{
		Topic:     p.topic,
		Key:       []byte(strconv.FormatInt(event.ProfileID, 10)),
		Value:     data,
		EventType: string(event.Type),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish profile event: %w", err)
	}

	return nil
}

// Healthy はいずれかのブローカーに接続できるかを確認する。
func (p *KafkaProducer) Healthy(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, broker := range p.brokers {
		conn, err := p.dial(ctx, broker)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("kafka unreachable: %w", errors.Join(errs...))
}

// Close は Kafka プロデューサーを閉じる。
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
