package mq

import (
	"context"

	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Publisher 领域事件发布者，满足各上下文的 EventPublisher 接口
type Publisher struct {
	sender Sender
}

// NewPublisher 创建基于 Kafka 的事件发布者；sender 为 nil 时事件只写日志
func NewPublisher(sender Sender) *Publisher {
	return &Publisher{sender: sender}
}

// Publish 发布事件，key 决定分区
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if p.sender == nil {
		logger.Debug(ctx, "Event published to log only", "topic", topic, "key", key)
		return nil
	}
	return p.sender.SendMessage(ctx, topic, key, event)
}
