package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-hotel-reservations/internal/config"
	"github.com/ariefcatur/go-hotel-reservations/internal/httpx"
	kafkax "github.com/ariefcatur/go-hotel-reservations/internal/kafka"
	"github.com/ariefcatur/go-hotel-reservations/internal/postgres"
	"github.com/ariefcatur/go-hotel-reservations/internal/redisx"
	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	var store reservation.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Println("store: in-memory, bookings are lost on restart")
		store = reservation.NewMemoryStore()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresPool)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		store = postgres.NewStore(db)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, reservation.TopicBookingEvents, 1024)
	prod.Start(ctx)

	coord := reservation.NewCoordinator(store, reservation.Options{
		AutoConfirm: cfg.AutoConfirm,
		MaxRetries:  cfg.RetryBudget(),
	})

	router := httpx.NewRouter()
	(&httpx.RoomsHandler{Coordinator: coord}).Register(router)
	(&httpx.BookingsHandler{
		Coordinator: coord,
		Producer:    prod,
		Cache:       &redisx.Cache{RDB: rdb},
		Service:     cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		log.Printf("server: %v", err)
	}

	prod.Close()      // no more publishes once the server has drained
	prod.WaitClosed() // flush
}
