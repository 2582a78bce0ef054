package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/dryclean-api/internal/kafkax"
	"github.com/pressline/dryclean-api/internal/orders"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []orders.Envelope
	fail      bool
}

func (d *recordingDeliverer) Deliver(ctx context.Context, e orders.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("webhook unreachable")
	}
	d.delivered = append(d.delivered, e)
	return nil
}

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newTestService(d Deliverer) *Service {
	return &Service{Redis: unreachableRedis(), Deliverer: d, Name: "test-notifier"}
}

func message(e orders.Envelope) kafkago.Message {
	return kafkago.Message{Value: kafkax.MustMarshal(e)}
}

func TestHandleEventDelivers(t *testing.T) {
	d := &recordingDeliverer{}
	svc := newTestService(d)

	env := orders.NewEnvelope("test-api", orders.EventOrderCreated, "order-1",
		orders.OrderCreatedPayload{OrderID: "order-1", TotalCents: 2500})

	err := svc.HandleEvent(context.Background(), message(env))
	require.NoError(t, err)
	require.Len(t, d.delivered, 1)
	assert.Equal(t, env.EventID, d.delivered[0].EventID)
	assert.Equal(t, "order-1", d.delivered[0].CorrelationID)

	payload, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](d.delivered[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), payload.TotalCents)
}

func TestHandleEventDropsPoisonMessages(t *testing.T) {
	d := &recordingDeliverer{}
	svc := newTestService(d)

	err := svc.HandleEvent(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.NoError(t, err, "poison messages must not block the partition")
	assert.Empty(t, d.delivered)
}

func TestHandleEventDropsFailedDeliveries(t *testing.T) {
	d := &recordingDeliverer{fail: true}
	svc := newTestService(d)

	env := orders.NewEnvelope("test-api", orders.EventOrderStatusChanged, "order-1",
		orders.OrderStatusChangedPayload{OrderID: "order-1"})

	err := svc.HandleEvent(context.Background(), message(env))
	assert.NoError(t, err, "a dead webhook must not stall consumption")
}

func TestWebhookDeliverer(t *testing.T) {
	var got orders.Envelope
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer okSrv.Close()

	env := orders.NewEnvelope("test-api", orders.EventOrderCreated, "order-1",
		orders.OrderCreatedPayload{OrderID: "order-1"})

	d := NewWebhookDeliverer(okSrv.URL)
	require.NoError(t, d.Deliver(context.Background(), env))
	assert.Equal(t, env.EventID, got.EventID)

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failSrv.Close()

	d = NewWebhookDeliverer(failSrv.URL)
	assert.Error(t, d.Deliver(context.Background(), env), "non-2xx responses count as failures")
}
