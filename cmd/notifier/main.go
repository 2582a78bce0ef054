package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pressline/dryclean-api/internal/config"
	"github.com/pressline/dryclean-api/internal/kafkax"
	"github.com/pressline/dryclean-api/internal/logx"
	"github.com/pressline/dryclean-api/internal/notify"
	"github.com/pressline/dryclean-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logx.Setup(cfg.LogLevel)

	if cfg.WebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Redis:     rdb,
		Deliverer: notify.NewWebhookDeliverer(cfg.WebhookURL),
		Name:      cfg.ServiceName + "-notifier",
	}

	// One consumer group member per topic; both feed the same dispatcher.
	topics := []string{notify.TopicOrderCreated, notify.TopicStatusChanged}
	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topic, cfg.NotifierWorkers)
		topic := topic
		g.Go(func() error {
			log.WithFields(log.Fields{
				"group":   cfg.NotifierGroup,
				"topic":   topic,
				"workers": cfg.NotifierWorkers,
			}).Info("notifier consumer started")
			return cons.Start(gctx, svc.HandleEvent)
		})
	}

	// metrics only, no API surface
	metricsSrv := &http.Server{Addr: getenv("METRICS_ADDR", ":9091"), Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("metrics listener")
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down notifier")
		cancel()
		_ = metricsSrv.Close()
	}()

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("consumer exit")
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
