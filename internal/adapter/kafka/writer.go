package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/coffee-trend-service/internal/config"
	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

// AnalysisEvent is the message published for each completed trend analysis.
// Filtered records are left out to keep messages small.
type AnalysisEvent struct {
	ID             string               `json:"id"`
	GeneratedAt    time.Time            `json:"generated_at"`
	CommodityCode  string               `json:"commodity_code"`
	Country        string               `json:"country"`
	CountryName    string               `json:"country_name"`
	AttributeID    int                  `json:"attribute_id"`
	AttributeLabel string               `json:"attribute_label"`
	Unit           string               `json:"unit"`
	FromYear       int                  `json:"from_year"`
	ToYear         int                  `json:"to_year"`
	Series         domain.GroupedSeries `json:"series"`
	Model          domain.TrendModel    `json:"model"`
	Forecast       []domain.Prediction  `json:"forecast"`
	MissingYears   []int                `json:"missing_years,omitempty"`
}

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces trend analyses to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer        messageWriter
	commodityCode string
	logger        *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, commodityCode: cfg.PSDCommodityCode, logger: logger}
}

// Publish serializes the analysis and writes it to the sink topic.
// Analyses without a fitted model are skipped.
func (p *Publisher) Publish(ctx context.Context, analysis pipeline.Analysis) error {
	if !analysis.HasTrend() {
		return nil
	}
	msg, err := serializeToMessage(newAnalysisEvent(analysis, p.commodityCode))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write analysis %s: %w", analysis.ID, err)
	}
	p.logger.Debug("analysis published", "analysis_id", analysis.ID)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newAnalysisEvent(a pipeline.Analysis, commodityCode string) AnalysisEvent {
	var missing []int
	for _, d := range a.Diagnostics {
		missing = append(missing, d.Year)
	}
	event := AnalysisEvent{
		ID:             a.ID,
		GeneratedAt:    a.GeneratedAt,
		CommodityCode:  commodityCode,
		Country:        a.Query.Country,
		CountryName:    a.CountryName,
		AttributeID:    a.Query.AttributeID,
		AttributeLabel: a.AttributeLabel,
		Unit:           a.Unit,
		FromYear:       a.Query.FromYear,
		ToYear:         a.Query.ToYear,
		Series:         a.Series,
		Forecast:       a.Forecast,
		MissingYears:   missing,
	}
	if a.Model != nil {
		event.Model = *a.Model
	}
	return event
}

// serializeToMessage marshals an AnalysisEvent into a Kafka message.
func serializeToMessage(event AnalysisEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "attribute_id", Value: []byte(strconv.Itoa(event.AttributeID))},
			{Key: "country_code", Value: []byte(event.Country)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
