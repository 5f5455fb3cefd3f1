package item

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/rentalhub/internal/dto"
	"github.com/Additional-Code/rentalhub/internal/entity"
	"github.com/Additional-Code/rentalhub/internal/presentation/http/response"
	itemsvc "github.com/Additional-Code/rentalhub/internal/service/item"
	"github.com/Additional-Code/rentalhub/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/rentalhub/transport/http/item")

// Handler exposes item catalogue endpoints over HTTP.
type Handler struct {
	svc *itemsvc.Service
}

// NewHandler constructs an item Handler.
func NewHandler(svc *itemsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/items")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.deactivate)
	g.GET("/next-code", h.nextCode)
	g.GET("/code-exists", h.codeExists)
	g.GET("/:id/orders-exist", h.ordersExist)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "items.list")
	defer span.End()

	items, err := h.svc.ListActive(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTOs(items)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.ItemCreateRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.create", trace.WithAttributes(attribute.String("item.name", payload.Name)))
	defer span.End()

	item, err := h.svc.Create(ctx, payload.Name, payload.PhotoURL)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(item)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var payload dto.ItemUpdateRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.update", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if err := h.svc.UpdateDetails(ctx, id, payload.Name, payload.PhotoURL); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(payload).Build()
}

func (h *Handler) deactivate(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.deactivate", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	if err := h.svc.Deactivate(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"status": "deactivated"}).Build()
}

func (h *Handler) nextCode(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "items.nextCode")
	defer span.End()

	code, err := h.svc.NextCode(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]string{"code": code}).Build()
}

func (h *Handler) codeExists(c echo.Context) error {
	b := response.New(c)

	code, err := strconv.Atoi(c.QueryParam("code"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid code", errorbank.WithCause(err))).Build()
	}
	var excludeItemID int64
	if raw := c.QueryParam("item_id"); raw != "" {
		excludeItemID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid item_id", errorbank.WithCause(err))).Build()
		}
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.codeExists", trace.WithAttributes(attribute.Int("item.code", code)))
	defer span.End()

	exists, err := h.svc.CodeExists(ctx, code, excludeItemID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]bool{"exists": exists}).Build()
}

func (h *Handler) ordersExist(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "items.ordersExist", trace.WithAttributes(attribute.Int64("item.id", id)))
	defer span.End()

	hasOrders, err := h.svc.HasOrders(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]bool{"orders_exist": hasOrders}).Build()
}

func toDTO(item *entity.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:        item.ID,
		Code:      item.Code,
		Name:      item.Name,
		PhotoURL:  item.PhotoURL,
		Active:    item.Active,
		CreatedAt: item.CreatedAt,
	}
}

func toDTOs(items []entity.Item) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toDTO(&items[i]))
	}
	return out
}
