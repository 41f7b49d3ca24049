package model

import (
	"time"
)

type Order struct {
	OrderID     string    `json:"order_id"`
	Title       string    `json:"title"`
	Customer    string    `json:"customer"`
	Status      string    `json:"status"` // DRAFT, IN_TRANSIT, DELIVERED, CANCELLED
	OrderType   string    `json:"order_type"`
	Value       float64   `json:"value"`
	Currency    string    `json:"currency"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// DocumentsCount is derived client-side by joining the document
	// collection on order_id; the order record itself is not authoritative.
	DocumentsCount int `json:"documents_count"`
}
