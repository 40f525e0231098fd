package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testRun() *domain.AnalysisRun {
	generated := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.AnalysisRun{
		ID:          "run-42",
		GeneratedAt: generated,
		Items: []domain.AnalyzedItem{
			{
				InventoryItem: domain.InventoryItem{ID: "1", SKU: "CROIS-003", Name: "Croissants"},
				StockoutRisk:  domain.StockoutRisk{Risk: domain.RiskCritical, Severity: 100, DaysUntilStockout: 1.5},
				OverstockRisk: domain.OverstockRisk{Risk: domain.RiskLow, Severity: 20},
				OverallRisk:   100,
				Recommendations: []domain.Recommendation{
					{Type: domain.RecommendReorder, Priority: domain.PriorityUrgent, Action: "Reorder 42 units immediately"},
				},
			},
			{
				InventoryItem: domain.InventoryItem{ID: "2", SKU: "TEA-005", Name: "Tea"},
				StockoutRisk:  domain.StockoutRisk{Risk: domain.RiskLow, Severity: 25, DaysUntilStockout: 90},
				OverstockRisk: domain.OverstockRisk{Risk: domain.RiskHigh, Severity: 85, DaysOfStock: 90},
				OverallRisk:   85,
			},
			{
				InventoryItem: domain.InventoryItem{ID: "3", SKU: "BREAD-004", Name: "Sourdough"},
				StockoutRisk:  domain.StockoutRisk{Risk: domain.RiskHigh, Severity: 75, DaysUntilStockout: 4},
				OverstockRisk: domain.OverstockRisk{Risk: domain.RiskHigh, Severity: 75, DaysOfStock: 4},
				OverallRisk:   75,
			},
		},
	}
}

func TestAlertsFor(t *testing.T) {
	events := AlertsFor(testRun())

	require.Len(t, events, 2)
	assert.Equal(t, "CROIS-003", events[0].SKU)
	assert.Equal(t, "Reorder 42 units immediately", events[0].TopRecommendation)
	assert.Equal(t, domain.RiskCritical, events[0].StockoutRisk)
	assert.Equal(t, "TEA-005", events[1].SKU)
	assert.Empty(t, events[1].TopRecommendation)

	assert.Nil(t, AlertsFor(nil))
}

func TestKafkaPublisher_PublishAlerts(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	n, err := p.PublishAlerts(context.Background(), testRun())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "CROIS-003", string(w.msgs[0].Key))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &payload))
	assert.Equal(t, "run-42", payload["run_id"])
	assert.Equal(t, "1", payload["item_id"])
	assert.Equal(t, "critical", payload["stockout_risk"])
	assert.Equal(t, "low", payload["overstock_risk"])
	assert.EqualValues(t, 100, payload["overall_risk"])
	assert.Equal(t, "2024-03-01T09:00:00Z", payload["generated_at"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_NothingToSend(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := &KafkaPublisher{writer: w}

	n, err := p.PublishAlerts(context.Background(), &domain.AnalysisRun{ID: "empty"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	n, err := p.PublishAlerts(context.Background(), testRun())
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "broker down")
}

func TestNewAlertPublisher(t *testing.T) {
	p, err := NewAlertPublisher(config.KafkaConfig{Enabled: false})
	require.NoError(t, err)
	n, err := p.PublishAlerts(context.Background(), testRun())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = NewAlertPublisher(config.KafkaConfig{Enabled: true})
	assert.Error(t, err)

	p, err = NewAlertPublisher(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, AlertTopic: "alerts"})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
