package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const (
	TopicSubscriptionActivated = "subscription.activated"
	TopicSubscriptionCanceling = "subscription.canceling"
	TopicSubscriptionCanceled  = "subscription.canceled"
)

// SubscriptionEvent событие жизненного цикла подписки для Kafka
type SubscriptionEvent struct {
	UserID               string                    `json:"user_id"`
	StripeSubscriptionID string                    `json:"stripe_subscription_id,omitempty"`
	PlanID               string                    `json:"plan_id"`
	Status               domain.SubscriptionStatus `json:"status"`
	BillingCycle         domain.BillingCycle       `json:"billing_cycle"`
	Timestamp            time.Time                 `json:"timestamp"`
}

// SubscriptionProducer публикует события жизненного цикла подписок
type SubscriptionProducer interface {
	PublishSubscriptionEvent(topic string, sub domain.Subscription) error
	Close() error
}

type kafkaSubscriptionProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewSyncProducer подключается к брокерам Kafka
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create producer: %w", err)
	}
	return producer, nil
}

// NewSubscriptionProducer создает продюсер событий подписок
func NewSubscriptionProducer(producer sarama.SyncProducer, log *logger.Logger) SubscriptionProducer {
	return &kafkaSubscriptionProducer{producer: producer, log: log}
}

// PublishSubscriptionEvent публикует событие подписки.
// Ключом сообщения служит userID, так все события одного пользователя
// остаются в одной партиции и сохраняют порядок.
func (p *kafkaSubscriptionProducer) PublishSubscriptionEvent(topic string, sub domain.Subscription) error {
	event := SubscriptionEvent{
		UserID:               sub.UserID.String(),
		StripeSubscriptionID: sub.StripeSubscriptionID,
		PlanID:               sub.PlanID,
		Status:               sub.Status,
		BillingCycle:         sub.BillingCycle,
		Timestamp:            time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal subscription event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Errorw("Failed to publish subscription event", "topic", topic, "userID", event.UserID, "error", err)
		return fmt.Errorf("kafka: failed to publish event: %w", err)
	}

	p.log.Debugw("Subscription event published", "topic", topic, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер
func (p *kafkaSubscriptionProducer) Close() error {
	return p.producer.Close()
}
