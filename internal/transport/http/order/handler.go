package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/rentalhub/internal/dto"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/internal/presentation/http/response"
	"github.com/Additional-Code/rentalhub/internal/service/availability"
	bookingsvc "github.com/Additional-Code/rentalhub/internal/service/booking"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/rentalhub/transport/http/order")

// Handler exposes booking endpoints over HTTP.
type Handler struct {
	bookings     *bookingsvc.Service
	availability *availability.Service
}

// NewHandler constructs an order Handler.
func NewHandler(bookings *bookingsvc.Service, avail *availability.Service) *Handler {
	return &Handler{bookings: bookings, availability: avail}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.GET("/month", h.monthOrders)
	g.GET("/check-availability", h.checkAvailability)
	g.GET("/unavailable-dates", h.unavailableDates)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.bookings.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.Int64("item.id", payload.ItemID)))
	defer span.End()

	order, err := h.bookings.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload dto.OrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.bookings.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.bookings.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"status": "deleted"}).Build()
}

func (h *Handler) monthOrders(c echo.Context) error {
	b := response.New(c)

	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid year", errorbank.WithCause(err))).Build()
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid month", errorbank.WithCause(err))).Build()
	}
	itemID := optionalID(c.QueryParam("item_id"))

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.month", trace.WithAttributes(
		attribute.Int("month.year", year),
		attribute.Int("month.month", month),
	))
	defer span.End()

	orders, err := h.bookings.MonthOrders(ctx, year, time.Month(month), itemID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTOs(orders)).Build()
}

func (h *Handler) checkAvailability(c echo.Context) error {
	b := response.New(c)

	itemID, err := strconv.ParseInt(c.QueryParam("item_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid item_id", errorbank.WithCause(err))).Build()
	}
	from, err := parseDate(c.QueryParam("from_date"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid from_date", errorbank.WithCause(err))).Build()
	}
	to, err := parseDate(c.QueryParam("to_date"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid to_date", errorbank.WithCause(err))).Build()
	}
	excludeOrderID := optionalID(c.QueryParam("order_id"))

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.checkAvailability", trace.WithAttributes(attribute.Int64("item.id", itemID)))
	defer span.End()

	available, err := h.availability.IsAvailable(ctx, itemID, from, to, excludeOrderID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.AvailabilityResponse{Available: available}).Build()
}

func (h *Handler) unavailableDates(c echo.Context) error {
	b := response.New(c)

	itemID, err := strconv.ParseInt(c.QueryParam("item_id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid item_id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.unavailableDates", trace.WithAttributes(attribute.Int64("item.id", itemID)))
	defer span.End()

	ranges, err := h.availability.UnavailableRanges(ctx, itemID)
	if err != nil {
		return b.WithError(err).Build()
	}

	booked := make([]dto.BookedRange, 0, len(ranges))
	for _, r := range ranges {
		booked = append(booked, dto.BookedRange{FromDate: r.From, ToDate: r.To})
	}
	return b.WithData(booked).Build()
}

// parseDate accepts a bare calendar date or a full RFC3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func optionalID(value string) int64 {
	if value == "" {
		return 0
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func toDTO(order *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:               order.ID,
		ItemID:           order.ItemID,
		ClientName:       order.ClientName,
		Village:          order.Village,
		FromDate:         order.FromDate,
		ToDate:           order.ToDate,
		Rent:             order.Rent,
		Advance:          order.Advance,
		Remaining:        order.Remaining,
		AdvanceTakenBy:   order.AdvanceTakenBy,
		RemainingTakenBy: order.RemainingTakenBy,
		RemainingAmount:  order.RemainingAmount,
		Remark:           order.Remark,
		MobileNumber:     order.MobileNumber,
		CreatedAt:        order.CreatedAt,
	}
}

func toDTOs(orders []entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toDTO(&orders[i]))
	}
	return out
}
