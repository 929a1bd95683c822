package service

import (
	"context"
	"encoding/json"
	"fmt"

	commonmqtt "neela-data/common/mqtt"
	commonredis "neela-data/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationStream 通知事件的 Redis stream
const NotificationStream = "neela:notifications"

// StreamNotifier XADD 到 Redis stream，由下游邮件服务消费
type StreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewStreamNotifier(client *redis.Client, logger *zap.Logger) *StreamNotifier {
	return &StreamNotifier{client: client, stream: NotificationStream, logger: logger}
}

func (n *StreamNotifier) Notify(ctx context.Context, notice Notice) error {
	id, err := commonredis.PublishJSONToStream(ctx, n.client, n.stream, notice.Kind, notice)
	if err != nil {
		return err
	}
	n.logger.Debug("Notification queued", zap.String("stream", n.stream), zap.String("id", id), zap.String("kind", notice.Kind))
	return nil
}

// mqttPublisher common/mqtt.Client 的发布能力
type mqttPublisher interface {
	Publish(suffix string, retained bool, payload []byte) error
}

// MQTTNotifier 发布到 <topic>/<kind>
type MQTTNotifier struct {
	client mqttPublisher
	logger *zap.Logger
}

func NewMQTTNotifier(client *commonmqtt.Client, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, logger: logger}
}

func (n *MQTTNotifier) Notify(_ context.Context, notice Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}
	return n.client.Publish(notice.Kind, false, payload)
}

// LogNotifier 没有消息通道时只打日志
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, notice Notice) error {
	n.logger.Info("Notification",
		zap.String("kind", notice.Kind),
		zap.String("tenant_id", notice.TenantID),
		zap.String("recipient", notice.Recipient),
		zap.String("subject", notice.Subject),
	)
	return nil
}

// FanoutNotifier 依次发给所有通道；全部尝试后返回第一个错误
type FanoutNotifier struct {
	notifiers []Notifier
}

func NewFanoutNotifier(notifiers ...Notifier) *FanoutNotifier {
	return &FanoutNotifier{notifiers: notifiers}
}

func (f *FanoutNotifier) Notify(ctx context.Context, notice Notice) error {
	var first error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, notice); err != nil && first == nil {
			first = err
		}
	}
	return first
}
