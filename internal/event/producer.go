package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	pkgkafka "github.com/augbriz/desarrollo-FE-tp/pkg/kafka"
	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
)

// Kafka topic constants for backoffice events.
const (
	TopicReviewDeleted = "backoffice.review.deleted"
	TopicCheckoutPaid  = "backoffice.checkout.paid"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeSale   = "sale"
)

// SourceBackoffice identifies events originating from this service.
const SourceBackoffice = "backoffice"

// Payment channels reported on checkout.paid.
const (
	ChannelSimulated = "simulated"
	ChannelProvider  = "provider"
)

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ReviewID  int       `json:"review_id"`
	Rating    int       `json:"rating,omitempty"`
	Product   string    `json:"product,omitempty"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}

// CheckoutPaidData is the payload for a checkout.paid event.
type CheckoutPaidData struct {
	SaleID      int                `json:"sale_id"`
	ProductType domain.ProductType `json:"product_type,omitempty"`
	ProductID   int                `json:"product_id,omitempty"`
	Channel     string             `json:"channel"`
	Reference   string             `json:"reference"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes backoffice events. A Producer without a publisher
// drops events, which is how the service runs with Kafka disabled.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. publisher may be nil.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: publisher, logger: logger}
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review domain.Review, deletedBy string, at time.Time) error {
	data := ReviewDeletedData{
		ReviewID:  review.ID,
		Rating:    review.Rating,
		Product:   review.ProductName(),
		DeletedBy: deletedBy,
		DeletedAt: at.UTC(),
	}
	return p.publish(ctx, TopicReviewDeleted, strconv.Itoa(review.ID), AggregateTypeReview, data,
		pkgkafka.WithActor(deletedBy), pkgkafka.OccurredAt(at))
}

// PublishCheckoutPaid publishes a checkout.paid event for a confirmed sale.
// reference is the session id or provider payment id.
func (p *Producer) PublishCheckoutPaid(ctx context.Context, sale domain.Sale, channel, reference string) error {
	data := CheckoutPaidData{
		SaleID:    sale.ID,
		Channel:   channel,
		Reference: reference,
	}
	if typ, id, ok := sale.Product(); ok {
		data.ProductType = typ
		data.ProductID = id
	}
	return p.publish(ctx, TopicCheckoutPaid, strconv.Itoa(sale.ID), AggregateTypeSale, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, opts ...pkgkafka.Option) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	opts = append(opts, pkgkafka.WithSource(SourceBackoffice))
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		opts = append(opts, pkgkafka.WithCorrelationID(id))
	}
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, data, opts...)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
