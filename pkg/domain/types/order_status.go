package types

import "fmt"

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Refundable reports whether an order in this status may enter the refund
// pipeline. Only shipped or delivered orders qualify.
func (s OrderStatus) Refundable() bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered
}

// String returns the string representation of the order status
func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus parses a string into an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid order status: %s", s)
	}
	return status, nil
}
