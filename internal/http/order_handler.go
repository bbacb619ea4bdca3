package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/ecosopis/storefront/internal/domain"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, lines []domain.CartLine) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

type OrderHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrderHandler(orders OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type PlaceOrderRequestDTO struct {
	Items []domain.CartLine `json:"items"`
}

// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := callerFromRequest(r)
	if err := auth.Authorize(caller, domain.RoleCustomer); err != nil {
		handleError(w, r, err)
		return
	}

	var req PlaceOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := h.orders.PlaceOrder(ctx, caller.UserID, req.Items)
	if err != nil {
		// a cart naming a missing product is a bad request, not a missing resource
		var unknown *domain.ProductNotFoundError
		if errors.As(err, &unknown) {
			respondError(w, http.StatusBadRequest, "unknown_product", unknown.Error())
			return
		}
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, normalizeOrder(*order))
}

// GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := callerFromRequest(r)
	if err := auth.Authorize(caller, domain.RoleCustomer); err != nil {
		handleError(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(ctx, caller.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, normalizeOrder(o))
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := callerFromRequest(r)
	if err := auth.Authorize(caller, domain.RoleCustomer); err != nil {
		handleError(w, r, err)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, caller.UserID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeOrder(*order))
}

func normalizeOrder(o domain.Order) domain.Order {
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o
}
