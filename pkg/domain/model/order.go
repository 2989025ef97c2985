package model

import (
	"time"

	"github.com/ledgerline/refundgate/pkg/domain/types"
)

// OrderItem is one line item of an order
type OrderItem struct {
	Name     string  `json:"name" toml:"name"`
	Category string  `json:"category" toml:"category"`
	Price    float64 `json:"price" toml:"price"`
	Quantity int     `json:"quantity" toml:"quantity"`
}

// Order is the purchase a refund case refers to. Orders are owned by the shop
// system; this pipeline only reads them for eligibility checks and snapshots.
type Order struct {
	ID          string
	UserID      string
	Items       []OrderItem
	TotalAmount float64
	Status      types.OrderStatus
	Phone       string `masq:"secret"`
	PayMethod   string
	CreatedAt   time.Time
}

// SummaryMap renders the order for a case context snapshot
func (o *Order) SummaryMap() map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"name":     item.Name,
			"category": item.Category,
			"price":    item.Price,
			"quantity": item.Quantity,
		})
	}
	return map[string]any{
		"order_id":     o.ID,
		"total_amount": o.TotalAmount,
		"status":       o.Status.String(),
		"items":        items,
		"created_at":   o.CreatedAt.Format(time.RFC3339),
	}
}
