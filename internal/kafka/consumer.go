package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
	// Backoff is the wait before re-running a failed handler.
	Backoff func(attempt int) time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, Backoff: defaultBackoff}
}

func defaultBackoff(attempt int) time.Duration {
	d := 200 * time.Millisecond << min(attempt, 5)
	return min(d, 5*time.Second)
}

// Start dispatches messages to workers until ctx is done or the reader fails.
// A partition always lands on the same worker, which handles its messages one
// at a time and does not move past a failing one; offsets are therefore
// committed in order and a committed offset never skips an unprocessed message.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if err := handleUntilDone(ctx, h, m, c.Backoff); err != nil {
					continue // ctx done: drain without committing
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					log.Printf("commit %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
				}
			}
		}(queues[i])
	}
	stop := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case queues[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handleUntilDone runs h until it succeeds or ctx is done, waiting backoff(n)
// after the n-th failure. It returns ctx's error when it gives up.
func handleUntilDone(ctx context.Context, h Handler, m kafka.Message, backoff func(int) time.Duration) error {
	for attempt := 0; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return nil
		}
		log.Printf("handle %s/%d@%d (attempt %d): %v", m.Topic, m.Partition, m.Offset, attempt+1, err)
		t := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
