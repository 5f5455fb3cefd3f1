package booking

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/rentalhub/internal/config"
	"github.com/Additional-Code/rentalhub/internal/messaging"
	bookingsvc "github.com/Additional-Code/rentalhub/internal/service/booking"
	"github.com/Additional-Code/rentalhub/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/rentalhub/worker/booking")

// Module registers booking-related worker handlers.
var Module = fx.Module("worker_booking",
	fx.Provide(
		fx.Annotate(
			NewBookingCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewBookingCreatedHandler sets up a worker handler that logs new bookings.
func NewBookingCreatedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.bookings.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event bookingsvc.BookingCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode booking created", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		logger.Info("booking created event processed",
			zap.Int64("order_id", event.OrderID),
			zap.Int64("item_id", event.ItemID),
			zap.Time("from_date", event.FromDate),
			zap.Time("to_date", event.ToDate),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
