package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akudrin/dotabet-backend/internal/events"
	"github.com/akudrin/dotabet-backend/internal/worker"
)

// Kafka publishes domain events off the hot path through the worker
// pool. A nil *Kafka is a valid no-op publisher: event publishing is
// optional and the core engine runs without a broker.
type Kafka struct {
	betPlaced    *kafka.Writer
	matchSettled *kafka.Writer
	wp           *worker.Pool
	log          *slog.Logger
}

func New(brokers, topicBetPlaced, topicMatchSettled string, wp *worker.Pool, log *slog.Logger) *Kafka {
	if brokers == "" {
		return nil
	}
	return &Kafka{
		betPlaced:    newWriter(brokers, topicBetPlaced),
		matchSettled: newWriter(brokers, topicMatchSettled),
		wp:           wp,
		log:          log,
	}
}

func newWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (p *Kafka) BetPlaced(e events.BetPlaced) {
	if p == nil {
		return
	}
	e.TsUnixMs = time.Now().UnixMilli()
	p.publish(p.betPlaced, e.BetID, e)
}

func (p *Kafka) MatchSettled(e events.MatchSettled) {
	if p == nil {
		return
	}
	e.TsUnixMs = time.Now().UnixMilli()
	p.publish(p.matchSettled, strconv.FormatInt(e.MatchID, 10), e)
}

func (p *Kafka) publish(w *kafka.Writer, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		p.log.Error("marshal event", "err", err)
		return
	}
	p.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}); err != nil {
			p.log.Error("publish event", "topic", w.Topic, "err", err)
		}
	})
}

func (p *Kafka) Close() {
	if p == nil {
		return
	}
	_ = p.betPlaced.Close()
	_ = p.matchSettled.Close()
}
