package domain

import "time"

// CompletionRecord marks a client cart as purchased.
type CompletionRecord struct {
	OrderID     *string   `json:"orderId"`
	OrderNumber *string   `json:"orderNumber"`
	CompletedAt time.Time `json:"completedAt"`
}

// CartCompleted is published after a completion record is stored.
type CartCompleted struct {
	ClientCartID string    `json:"client_cart_id"`
	OrderID      *string   `json:"order_id"`
	OrderNumber  *string   `json:"order_number"`
	ShopDomain   string    `json:"shop_domain"`
	CompletedAt  time.Time `json:"completed_at"`
}
