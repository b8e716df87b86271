package models

import "time"

// SentEmailRecord is the append-only audit row written once per successful send.
type SentEmailRecord struct {
	ID            int64     `json:"id"`
	SellerID      int64     `json:"seller_id"`
	OrderID       int64     `json:"order_id"`
	AmazonOrderID string    `json:"amazon_order_id"`
	ASIN          string    `json:"asin"`
	Subject       string    `json:"subject"`
	Content       string    `json:"content"`
	SentAt        time.Time `json:"sent_at"`
}
