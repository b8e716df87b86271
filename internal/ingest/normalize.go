package ingest

import (
	"strings"
	"time"

	"ReviewSend/internal/models"
	"ReviewSend/internal/spapi"
)

const (
	channelAFN     = "AFN"
	statusCanceled = "Canceled"
	conditionUsed  = "Used"
)

// Normalize turns one order header and its line items into drafts, one per
// item. lookedUpEmail is the result of the secondary buyer-info call and is
// only used when the header has no inline buyer email.
func Normalize(header spapi.OrderHeader, items []spapi.LineItem, lookedUpEmail string) []models.OrderDraft {
	orderDate, _ := parseTime(header.PurchaseDate)

	var shippingDate *time.Time
	if t, ok := parseTime(header.LastUpdateDate); ok {
		shippingDate = &t
	}

	buyerEmail := resolveBuyerEmail(header, lookedUpEmail)

	drafts := make([]models.OrderDraft, 0, len(items))
	for _, item := range items {
		asin := strings.TrimSpace(item.ASIN)
		title := strings.TrimSpace(item.Title)
		if asin == "" || title == "" {
			continue
		}

		drafts = append(drafts, models.OrderDraft{
			AmazonOrderID: header.AmazonOrderID,
			ASIN:          asin,
			ProductName:   title,
			OrderDate:     orderDate,
			ShippingDate:  shippingDate,
			BuyerEmail:    buyerEmail,
			IsFBA:         header.FulfillmentChannel == channelAFN,
			IsUsed:        strings.EqualFold(item.ConditionID, conditionUsed),
			IsCanceled:    header.OrderStatus == statusCanceled,
		})
	}
	return drafts
}

// InlineBuyerEmail returns the buyer email carried on the header, if any.
func InlineBuyerEmail(header spapi.OrderHeader) string {
	if header.BuyerInfo == nil {
		return ""
	}
	return strings.TrimSpace(header.BuyerInfo.BuyerEmail)
}

func resolveBuyerEmail(header spapi.OrderHeader, lookedUp string) *string {
	if email := InlineBuyerEmail(header); email != "" {
		return &email
	}
	if email := strings.TrimSpace(lookedUp); email != "" {
		return &email
	}
	return nil
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
