package ingest

import (
	"testing"
	"time"

	"ReviewSend/internal/spapi"
)

func TestNormalize(t *testing.T) {
	header := spapi.OrderHeader{
		AmazonOrderID:      "111-1",
		PurchaseDate:       "2026-10-01T08:00:00Z",
		LastUpdateDate:     "2026-10-03T10:30:00Z",
		OrderStatus:        "Shipped",
		FulfillmentChannel: "AFN",
	}
	items := []spapi.LineItem{
		{ASIN: "B08X", Title: "Kettle", ConditionID: "New"},
		{ASIN: "B09Y", Title: "Teapot", ConditionID: "used"},
		{ASIN: "", Title: "No asin"},
		{ASIN: "B10Z", Title: "  "},
	}

	drafts := Normalize(header, items, "lookup@example.com")
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	first := drafts[0]
	if first.AmazonOrderID != "111-1" || first.ASIN != "B08X" || first.ProductName != "Kettle" {
		t.Fatalf("unexpected draft: %+v", first)
	}
	if !first.IsFBA || first.IsCanceled || first.IsUsed {
		t.Fatalf("unexpected flags: %+v", first)
	}
	if want := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC); !first.OrderDate.Equal(want) {
		t.Fatalf("expected order date %v, got %v", want, first.OrderDate)
	}
	if first.ShippingDate == nil || !first.ShippingDate.Equal(time.Date(2026, 10, 3, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected shipping date %v", first.ShippingDate)
	}
	if first.BuyerEmail == nil || *first.BuyerEmail != "lookup@example.com" {
		t.Fatalf("expected looked-up email, got %v", first.BuyerEmail)
	}

	if !drafts[1].IsUsed {
		t.Fatal("expected used condition to be detected case-insensitively")
	}
}

func TestNormalizeBuyerEmailFallback(t *testing.T) {
	items := []spapi.LineItem{{ASIN: "B08X", Title: "Kettle"}}

	inline := spapi.OrderHeader{
		AmazonOrderID: "1",
		BuyerInfo:     &spapi.BuyerInfo{BuyerEmail: "inline@example.com"},
	}
	if d := Normalize(inline, items, "lookup@example.com"); *d[0].BuyerEmail != "inline@example.com" {
		t.Fatalf("expected inline email to win, got %q", *d[0].BuyerEmail)
	}

	bare := spapi.OrderHeader{AmazonOrderID: "2", BuyerInfo: &spapi.BuyerInfo{}}
	if d := Normalize(bare, items, ""); d[0].BuyerEmail != nil {
		t.Fatalf("expected nil email, got %q", *d[0].BuyerEmail)
	}
}

func TestNormalizeStatusAndMissingDates(t *testing.T) {
	header := spapi.OrderHeader{
		AmazonOrderID:      "3",
		OrderStatus:        "Canceled",
		FulfillmentChannel: "MFN",
		LastUpdateDate:     "not a date",
	}
	d := Normalize(header, []spapi.LineItem{{ASIN: "B08X", Title: "Kettle"}}, "")
	if len(d) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(d))
	}
	if !d[0].IsCanceled || d[0].IsFBA {
		t.Fatalf("unexpected flags: %+v", d[0])
	}
	if d[0].ShippingDate != nil {
		t.Fatalf("expected nil shipping date, got %v", d[0].ShippingDate)
	}
}
