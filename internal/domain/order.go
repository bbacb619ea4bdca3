package domain

import "time"

type OrderStatus string

// Orders are created pending; later transitions belong to fulfillment.
const OrderStatusPending OrderStatus = "pending"

// CartLine is one (productId, quantity) pair submitted for checkout.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

// OrderItem holds the unit price captured when the order was placed.
type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"orderId"`
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price"`
}

// LineTotal is the unit price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderItem `json:"items"`
}
