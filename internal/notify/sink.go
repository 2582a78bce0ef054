package notify

import (
	kafkago "github.com/segmentio/kafka-go"

	"github.com/pressline/dryclean-api/internal/kafkax"
	"github.com/pressline/dryclean-api/internal/orders"
)

// KafkaSink routes order engine events onto their topics. Publishing is
// buffered and asynchronous; a broker outage never fails the mutation that
// emitted the event.
type KafkaSink struct {
	Created       *kafkax.Producer
	StatusChanged *kafkax.Producer
}

func (s *KafkaSink) Emit(e orders.Envelope) {
	var p *kafkax.Producer
	switch e.EventType {
	case orders.EventOrderCreated:
		p = s.Created
	case orders.EventOrderStatusChanged:
		p = s.StatusChanged
	default:
		return
	}
	p.Publish(PartitionKey(e.CorrelationID), kafkax.MustMarshal(e),
		kafkago.Header{Key: "x-event-type", Value: []byte(e.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
