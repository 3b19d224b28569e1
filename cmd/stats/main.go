package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-hotel-reservations/internal/config"
	kafkax "github.com/ariefcatur/go-hotel-reservations/internal/kafka"
	"github.com/ariefcatur/go-hotel-reservations/internal/redisx"
	"github.com/ariefcatur/go-hotel-reservations/internal/reservation"
	"github.com/ariefcatur/go-hotel-reservations/internal/stats"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stats.Service{
		Projection:  &redisx.Cache{RDB: rdb},
		ServiceName: cfg.ServiceName + "-stats",
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StatsGroup, reservation.TopicBookingEvents, cfg.StatsWorkers)
	log.Printf("stats consumer started: group=%s topic=%s workers=%d", cfg.StatsGroup, reservation.TopicBookingEvents, cfg.StatsWorkers)
	if err := cons.Start(ctx, svc.HandleBookingEvent); err != nil {
		log.Printf("consumer exit: %v", err)
		return
	}
	log.Println("stats consumer stopped")
}
