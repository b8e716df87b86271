package models

import "time"

// OrderDraft is a normalized line item that has not been stored yet.
type OrderDraft struct {
	AmazonOrderID string
	ASIN          string
	ProductName   string
	OrderDate     time.Time
	ShippingDate  *time.Time
	BuyerEmail    *string
	IsFBA         bool
	IsUsed        bool
	IsCanceled    bool
}

// Order is one stored line item, unique per (SellerID, AmazonOrderID, ASIN).
type Order struct {
	ID               int64      `json:"id"`
	SellerID         int64      `json:"seller_id"`
	AmazonOrderID    string     `json:"amazon_order_id"`
	ASIN             string     `json:"asin"`
	ProductName      string     `json:"product_name"`
	OrderDate        time.Time  `json:"order_date"`
	ShippingDate     *time.Time `json:"shipping_date,omitempty"`
	BuyerEmail       *string    `json:"buyer_email,omitempty"`
	IsFBA            bool       `json:"is_fba"`
	IsUsed           bool       `json:"is_used"`
	IsCanceled       bool       `json:"is_canceled"`
	EligibleForEmail bool       `json:"eligible_for_email"`
	EmailSent        bool       `json:"email_sent"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewOrder freezes eligibility onto a draft for insertion.
func NewOrder(sellerID int64, d OrderDraft, eligible bool) Order {
	return Order{
		SellerID:         sellerID,
		AmazonOrderID:    d.AmazonOrderID,
		ASIN:             d.ASIN,
		ProductName:      d.ProductName,
		OrderDate:        d.OrderDate,
		ShippingDate:     d.ShippingDate,
		BuyerEmail:       d.BuyerEmail,
		IsFBA:            d.IsFBA,
		IsUsed:           d.IsUsed,
		IsCanceled:       d.IsCanceled,
		EligibleForEmail: eligible,
	}
}

// DaysSinceShipping is floor((now - ShippingDate) / 24h), or -1 when unshipped.
func (o Order) DaysSinceShipping(now time.Time) int {
	if o.ShippingDate == nil {
		return -1
	}
	const day = 24 * time.Hour
	elapsed := now.Sub(*o.ShippingDate)
	days := int(elapsed / day)
	if elapsed < 0 && elapsed%day != 0 {
		days--
	}
	return days
}
