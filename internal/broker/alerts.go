package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/andresuchdata/stockrisk/internal/analysis"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

// AlertEvent is the message published for every item that needs immediate action.
type AlertEvent struct {
	RunID             string          `json:"run_id"`
	ItemID            string          `json:"item_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	StockoutRisk      domain.RiskTier `json:"stockout_risk"`
	OverstockRisk     domain.RiskTier `json:"overstock_risk"`
	OverallRisk       int             `json:"overall_risk"`
	TopRecommendation string          `json:"top_recommendation"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// AlertPublisher emits critical-alert events for an analysis run.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, run *domain.AnalysisRun) (int, error)
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes alert events to a topic keyed by SKU.
type KafkaPublisher struct {
	writer messageWriter
}

type noopPublisher struct{}

// NewAlertPublisher returns a Kafka publisher, or a noop one when Kafka is disabled.
func NewAlertPublisher(cfg config.KafkaConfig) (AlertPublisher, error) {
	if !cfg.Enabled {
		return noopPublisher{}, nil
	}
	if len(cfg.Brokers) == 0 || cfg.AlertTopic == "" {
		return nil, fmt.Errorf("kafka enabled but brokers or alert topic missing")
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.AlertTopic), nil
}

func NewNoopPublisher() AlertPublisher {
	return noopPublisher{}
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &KafkaPublisher{writer: writer}
}

// PublishAlerts writes one message per critical item in a single batch and
// returns how many were sent.
func (p *KafkaPublisher) PublishAlerts(ctx context.Context, run *domain.AnalysisRun) (int, error) {
	events := AlertsFor(run)
	if len(events) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	now := time.Now()
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal alert %s: %w", event.ItemID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.SKU),
			Value: payload,
			Time:  now,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("failed to write alerts to kafka: %w", err)
	}

	log.Debug().Str("run_id", run.ID).Int("alerts", len(msgs)).Msg("Published risk alerts")
	return len(msgs), nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (noopPublisher) PublishAlerts(ctx context.Context, run *domain.AnalysisRun) (int, error) {
	return 0, nil
}

func (noopPublisher) Close() error { return nil }

// AlertsFor builds the alert events of a run, in worklist order.
func AlertsFor(run *domain.AnalysisRun) []AlertEvent {
	if run == nil {
		return nil
	}

	var events []AlertEvent
	for _, item := range run.Items {
		if !analysis.IsCriticalAlert(item) {
			continue
		}
		event := AlertEvent{
			RunID:         run.ID,
			ItemID:        item.ID,
			SKU:           item.SKU,
			Name:          item.Name,
			StockoutRisk:  item.StockoutRisk.Risk,
			OverstockRisk: item.OverstockRisk.Risk,
			OverallRisk:   item.OverallRisk,
			GeneratedAt:   run.GeneratedAt,
		}
		if len(item.Recommendations) > 0 {
			event.TopRecommendation = item.Recommendations[0].Action
		}
		events = append(events, event)
	}
	return events
}
