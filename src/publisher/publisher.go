package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"auction-engine/src/config"
	"auction-engine/src/engine"
	"auction-engine/src/models"
)

const (
	defaultWriteTimeout = 2 * time.Second
	marketDataDepth     = 10
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards engine events to Kafka as JSON. It implements both
// engine.TradeListener and engine.MarketDataListener; failed writes are
// returned to the engine, which logs them and moves on.
type Publisher struct {
	writer          messageWriter
	tradeTopic      string
	marketDataTopic string
	writeTimeout    time.Duration
}

var (
	_ engine.TradeListener      = (*Publisher)(nil)
	_ engine.MarketDataListener = (*Publisher)(nil)
)

func NewPublisher(cfg config.KafkaConfig) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, cfg.TradeTopic, cfg.MarketDataTopic)
}

func newPublisher(writer messageWriter, tradeTopic, marketDataTopic string) *Publisher {
	return &Publisher{
		writer:          writer,
		tradeTopic:      tradeTopic,
		marketDataTopic: marketDataTopic,
		writeTimeout:    defaultWriteTimeout,
	}
}

func (p *Publisher) OnTrade(trade engine.Trade) error {
	return p.publish(p.tradeTopic, trade.Symbol, models.NewTradeEvent(trade))
}

func (p *Publisher) OnMarketData(snapshot *engine.BookSnapshot) error {
	return p.publish(p.marketDataTopic, snapshot.Symbol, models.NewMarketDataEvent(snapshot, marketDataDepth))
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// publish keys messages by symbol so each instrument's events stay ordered
// within one partition.
func (p *Publisher) publish(topic, symbol string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(symbol),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().
			Err(err).
			Str("topic", topic).
			Str("symbol", symbol).
			Msg("Failed to publish event")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
