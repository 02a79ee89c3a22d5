package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-artisan-market.git/internal/auth"
	"github.com/ariefcatur/go-artisan-market.git/internal/config"
	"github.com/ariefcatur/go-artisan-market.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-artisan-market.git/internal/kafka"
	"github.com/ariefcatur/go-artisan-market.git/internal/market"
	"github.com/ariefcatur/go-artisan-market.git/internal/payment"
	"github.com/ariefcatur/go-artisan-market.git/internal/postgres"
	"github.com/ariefcatur/go-artisan-market.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicStockRejected, 1024)
	pRejected.Start(ctx)

	// Store + core
	store := &market.PGStore{DB: db}
	engine := &market.Engine{Store: store}
	checkout := &market.Checkout{Store: store, Payments: payment.New(cfg.PaymentURL)}
	carts := &market.Carts{DB: db}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Engine:   engine,
		Checkout: checkout,
		Store:    store,
		Placed:   pPlaced,
		Status:   pStatus,
		Rejected: pRejected,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	ch := &httpx.CartHandler{Carts: carts}
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		oh.Register(r)
		ch.Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pPlaced, pStatus, pRejected} {
		p.Close() // tutup inbox -> flush & close writer
	}
	for _, p := range []*kafkax.Producer{pPlaced, pStatus, pRejected} {
		p.WaitClosed()
	}
}
