package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

var statuses = []OrderStatus{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (OrderStatus, error) {
	for _, st := range statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", apperr.Validation("unknown order status %q", s)
}

type Order struct {
	ID              int64        `json:"id"`
	CustomerName    string       `json:"customerName"`
	CustomerEmail   string       `json:"customerEmail"`
	ShippingAddress string       `json:"shippingAddress"`
	Items           []OrderItem  `json:"orderItems"`
	TotalAmount     money.Amount `json:"totalAmount"`
	Status          OrderStatus  `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// OrderItem snapshots the product's name and price at reservation time; later
// product changes do not alter it.
type OrderItem struct {
	ID          int64        `json:"id"`
	ProductID   int64        `json:"productId"`
	ProductName string       `json:"productName"`
	Quantity    int          `json:"quantity"`
	UnitPrice   money.Amount `json:"unitPrice"`
	Subtotal    money.Amount `json:"subtotal"`
}

func NewOrderItem(productID int64, name string, qty int, unitPrice money.Amount) OrderItem {
	return OrderItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.MulInt(qty),
	}
}

func NewOrder(customerName, customerEmail, shippingAddress string, items []OrderItem) Order {
	subtotals := make([]money.Amount, 0, len(items))
	for _, item := range items {
		subtotals = append(subtotals, item.Subtotal)
	}
	now := time.Now().UTC()
	return Order{
		CustomerName:    customerName,
		CustomerEmail:   customerEmail,
		ShippingAddress: shippingAddress,
		Items:           items,
		TotalAmount:     money.Sum(subtotals...),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ItemRequest is one requested line before reservation.
type ItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CreateOrder struct {
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	Items           []ItemRequest
}

func (c CreateOrder) Validate() error {
	if strings.TrimSpace(c.CustomerName) == "" {
		return apperr.Validation("customer name is required")
	}
	if !strings.Contains(c.CustomerEmail, "@") {
		return apperr.Validation("customer email %q is invalid", c.CustomerEmail)
	}
	if strings.TrimSpace(c.ShippingAddress) == "" {
		return apperr.Validation("shipping address is required")
	}
	if len(c.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	for i, it := range c.Items {
		if it.Quantity <= 0 {
			return apperr.Validation("item %d: quantity must be greater than 0, got %d", i, it.Quantity)
		}
	}
	return nil
}

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	CustomerEmail        string
	Status               OrderStatus
	CustomerNameContains string
}

func (f Filter) Matches(o Order) bool {
	if f.CustomerEmail != "" && o.CustomerEmail != f.CustomerEmail {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.CustomerNameContains != "" && !strings.Contains(strings.ToLower(o.CustomerName), strings.ToLower(f.CustomerNameContains)) {
		return false
	}
	return true
}
