package model

// DefaultOrderStatus is reported for orders the order service returns without a status
const DefaultOrderStatus = "PENDING"

// Product is reference data owned by the order service
type Product struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Order is an order as returned by the order service
type Order struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	UserID      int64  `json:"user_id"`
	OrderStatus string `json:"order_status,omitempty"`
}

// Status returns the order status, defaulting to PENDING when the service omitted it
func (o Order) Status() string {
	if o.OrderStatus == "" {
		return DefaultOrderStatus
	}
	return o.OrderStatus
}

// InventoryItem is the stock level of a single product
type InventoryItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// CreateOrderRequest is the body posted to the order service
type CreateOrderRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UserID    int64 `json:"user_id"`
}

// CreateOrderResponse wraps the order returned on creation
type CreateOrderResponse struct {
	Order Order `json:"order"`
}

// UpdateInventoryRequest is the body posted to the inventory service
type UpdateInventoryRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}
