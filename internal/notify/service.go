package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pressline/dryclean-api/internal/metrics"
	"github.com/pressline/dryclean-api/internal/orders"
	"github.com/pressline/dryclean-api/internal/redisx"
)

// Deliverer pushes one event to the outside world.
type Deliverer interface {
	Deliver(ctx context.Context, e orders.Envelope) error
}

// WebhookDeliverer posts envelopes to a configured URL behind a circuit
// breaker, so a dead endpoint stops burning request timeouts.
type WebhookDeliverer struct {
	URL     string
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWebhookDeliverer(url string) *WebhookDeliverer {
	return &WebhookDeliverer{
		URL:    url,
		client: resty.New().SetTimeout(5 * time.Second).SetRetryCount(0),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "notification-webhook",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, e orders.Envelope) error {
	_, err := d.breaker.Execute(func() (interface{}, error) {
		resp, err := d.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(e).
			Post(d.URL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 300 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode())
		}
		return nil, nil
	})
	return err
}

// Service is the dispatcher side: it consumes engine events, dedups them by
// event id, and hands them to the deliverer. A failed delivery is logged,
// counted and dropped; it never propagates back toward the order engine.
type Service struct {
	Redis     *redis.Client
	Deliverer Deliverer
	Name      string
}

func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.WithError(err).Warn("dropping undecodable event")
		return nil // poison message, do not block the partition
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	if err := s.Deliverer.Deliver(ctx, env); err != nil {
		metrics.NotificationsFailed.Inc()
		log.WithFields(log.Fields{
			"event_id":   env.EventID,
			"event_type": env.EventType,
			"order_id":   env.CorrelationID,
		}).WithError(err).Warn("notification delivery failed")
		return nil
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	metrics.NotificationsDelivered.Inc()
	log.WithFields(log.Fields{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"order_id":   env.CorrelationID,
	}).Info("notification delivered")
	return nil
}
