package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ecosopis/storefront/internal/domain"
)

// PlaceOrder validates the cart, snapshots the current price of every line,
// and persists the order with its items in a single transaction.
//
// Nothing is written unless every product resolves. The returned order
// satisfies Total == sum(item.Price * item.Quantity).
func (s *Service) PlaceOrder(ctx context.Context, userID int64, lines []domain.CartLine) (*domain.Order, error) {
	if err := validateCart(userID, lines); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ProductNotFoundError{ProductID: line.ProductID}
		}
		if err != nil {
			return nil, wrapUpstream(fmt.Sprintf("resolve product %d", line.ProductID), err)
		}

		lineTotal, ok := mulInt64(product.Price, line.Quantity)
		if !ok {
			return nil, domain.NewValidationError("items", fmt.Sprintf("line total for product %d overflows", line.ProductID))
		}
		if total, ok = addInt64(total, lineTotal); !ok {
			return nil, domain.NewValidationError("items", "order total overflows")
		}

		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}

	order := &domain.Order{
		UserID: userID,
		Total:  total,
		Status: domain.OrderStatusPending,
		Items:  items,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "order persistence failed", "user_id", userID, "error", err)
		return nil, wrapUpstream("create order", err)
	}

	if s.metrics != nil {
		s.metrics.OrderPlaced(order.Total)
	}
	s.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"user_id", userID,
		"items", len(order.Items),
		"total", order.Total)

	return order, nil
}

func validateCart(userID int64, lines []domain.CartLine) error {
	if userID <= 0 {
		return fmt.Errorf("place order: %w", domain.ErrUnauthorized)
	}
	if len(lines) == 0 {
		return domain.NewValidationError("items", "cart is empty")
	}
	for i, line := range lines {
		if line.ProductID <= 0 {
			return domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "must be a positive integer")
		}
		if line.Quantity < 1 {
			return domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	return nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

func addInt64(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
