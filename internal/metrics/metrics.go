package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dryclean_orders_created_total",
		Help: "Orders successfully created",
	})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dryclean_order_transitions_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dryclean_notifications_delivered_total",
		Help: "Notification events delivered to the webhook",
	})

	NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dryclean_notifications_failed_total",
		Help: "Notification events that could not be delivered",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dryclean_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Middleware records request latency and status for every handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
