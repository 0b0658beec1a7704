// Package mq 提供 Kafka producer/consumer 通用实现，支持手动提交、重试与死信队列
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers        []string
	GroupID        string
	SessionTimeout int
	MaxRetries     int
	RetryBackoff   int
}

// Sender 消息发送抽象，生产者与测试替身都实现它
type Sender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者，主题由每条消息指定
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer}
}

// SendMessage 发送单条 JSON 消息，同一 key 落在同一分区
func (kp *KafkaProducer) SendMessage(ctx context.Context, topic string, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := kp.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		logger.Error(ctx, "Failed to send Kafka message", "topic", topic, "key", key, "error", err)
		return err
	}

	logger.Debug(ctx, "Kafka message sent", "topic", topic, "key", key)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// Handler 消息处理函数；返回错误时不提交偏移量
type Handler func(ctx context.Context, msg *Message) error

// KafkaConsumer Kafka 消费者（消费组，至少一次语义）
type KafkaConsumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer 创建 Kafka 消费者
func NewConsumer(cfg KafkaConfig, topic string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		StartOffset:    kafka.FirstOffset,
		MaxBytes:       10e6, // 10MB
	})

	logger.Info(context.Background(), "Kafka consumer created",
		"brokers", cfg.Brokers,
		"topic", topic,
		"group_id", cfg.GroupID,
	)
	return &KafkaConsumer{reader: reader, topic: topic}
}

// Run 循环拉取并处理消息，直到 ctx 取消
// 处理失败的消息记录日志后同样提交偏移量，重投由处理函数自行决定
func (kc *KafkaConsumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error(ctx, "Failed to fetch Kafka message", "topic", kc.topic, "error", err)
			return err
		}

		msg := fromKafka(m)
		if err := handle(ctx, msg); err != nil {
			logger.Error(ctx, "Kafka message handler failed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
		if err := kc.reader.CommitMessages(ctx, m); err != nil {
			logger.Error(ctx, "Failed to commit Kafka offset", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// Close 关闭消费者
func (kc *KafkaConsumer) Close() error {
	return kc.reader.Close()
}

// Message Kafka 消息结构
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Time      time.Time
}

func fromKafka(m kafka.Message) *Message {
	return &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       string(m.Key),
		Value:     m.Value,
		Time:      m.Time,
	}
}

// UnmarshalPayload 将消息值解析为 JSON
func (m *Message) UnmarshalPayload(dest any) error {
	return json.Unmarshal(m.Value, dest)
}

// DeadLetter 死信消息体
type DeadLetter struct {
	OriginalTopic    string    `json:"original_topic"`
	OriginalKey      string    `json:"original_key"`
	OriginalValue    string    `json:"original_value"`
	OriginalOffset   int64     `json:"original_offset"`
	FailureReason    string    `json:"failure_reason"`
	FailureError     string    `json:"failure_error"`
	FailureTimestamp time.Time `json:"failure_timestamp"`
}

// DeadLetterQueue 死信队列处理
type DeadLetterQueue struct {
	sender Sender
	topic  string
}

// NewDeadLetterQueue 创建死信队列
func NewDeadLetterQueue(sender Sender, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{sender: sender, topic: topic}
}

// Send 发送消息到死信队列
func (dlq *DeadLetterQueue) Send(ctx context.Context, original *Message, reason string, err error) error {
	letter := DeadLetter{
		OriginalTopic:    original.Topic,
		OriginalKey:      original.Key,
		OriginalValue:    string(original.Value),
		OriginalOffset:   original.Offset,
		FailureReason:    reason,
		FailureTimestamp: time.Now(),
	}
	if err != nil {
		letter.FailureError = err.Error()
	}
	logger.Warn(ctx, "Message moved to dead letter queue", "topic", dlq.topic, "key", original.Key, "reason", reason)
	return dlq.sender.SendMessage(ctx, dlq.topic, original.Key, letter)
}
