package model

// PlaceOrderForm is the order form an operator submits to the console
type PlaceOrderForm struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	UserID    string `json:"user_id" validate:"userid"`
}

// UpdateStockForm sets the stock level of a product
type UpdateStockForm struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"gte=0"`
}
