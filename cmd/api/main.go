package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/auth"
	"github.com/pressline/dryclean-api/internal/catalog"
	"github.com/pressline/dryclean-api/internal/config"
	"github.com/pressline/dryclean-api/internal/httpx"
	"github.com/pressline/dryclean-api/internal/kafkax"
	"github.com/pressline/dryclean-api/internal/ledger"
	"github.com/pressline/dryclean-api/internal/logx"
	"github.com/pressline/dryclean-api/internal/notify"
	"github.com/pressline/dryclean-api/internal/orders"
	"github.com/pressline/dryclean-api/internal/postgres"
	"github.com/pressline/dryclean-api/internal/redisx"
	"github.com/pressline/dryclean-api/internal/shops"
	"github.com/pressline/dryclean-api/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logx.Setup(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicStatusChanged, 1024)
	pStatus.Start(ctx)

	catalogStore := &catalog.Store{DB: db}
	ledgerSvc := &ledger.Service{
		Store: &ledger.PgStore{DB: db},
		Policy: ledger.Policy{
			EarnPercent: cfg.LoyaltyEarnPercent,
			ExpiryDays:  cfg.LoyaltyExpiryDays,
		},
	}
	engine := &orders.Engine{
		Store:  &orders.PgStore{DB: db},
		Pricer: catalogStore,
		Ledger: ledgerSvc,
		Events: &notify.KafkaSink{Created: pCreated, StatusChanged: pStatus},
		Name:   cfg.ServiceName,
	}

	tokens := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHrs)*time.Hour)
	authH := &httpx.AuthHandler{Users: &users.Store{DB: db}, Tokens: tokens}
	shopsH := &httpx.ShopsHandler{Shops: &shops.Store{DB: db}}
	catalogH := &httpx.CatalogHandler{Catalog: catalogStore}
	ordersH := &httpx.OrdersHandler{Engine: engine, Redis: rdb}
	loyaltyH := &httpx.LoyaltyHandler{Ledger: ledgerSvc}

	router := httpx.NewRouter()
	authH.Register(router)
	router.Route("/api", func(r chi.Router) {
		r.Use(httpx.RequireAuth(tokens, &access.Store{DB: db}))
		authH.RegisterProtected(r)
		shopsH.Register(r)
		catalogH.Register(r)
		ordersH.Register(r)
		loyaltyH.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)

	// Close the inboxes first so buffered events flush, then stop the loops.
	pCreated.Close()
	pStatus.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
