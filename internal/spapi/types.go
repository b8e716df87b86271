package spapi

import "fmt"

// OrderHeader is the subset of an SP-API Order the service reads.
type OrderHeader struct {
	AmazonOrderID      string     `json:"AmazonOrderId"`
	PurchaseDate       string     `json:"PurchaseDate"`
	LastUpdateDate     string     `json:"LastUpdateDate,omitempty"`
	OrderStatus        string     `json:"OrderStatus"`
	FulfillmentChannel string     `json:"FulfillmentChannel,omitempty"`
	BuyerInfo          *BuyerInfo `json:"BuyerInfo,omitempty"`
}

type BuyerInfo struct {
	BuyerEmail string `json:"BuyerEmail,omitempty"`
	BuyerName  string `json:"BuyerName,omitempty"`
}

// LineItem is the subset of an SP-API OrderItem the service reads.
type LineItem struct {
	OrderItemID     string `json:"OrderItemId"`
	ASIN            string `json:"ASIN"`
	Title           string `json:"Title"`
	ConditionID     string `json:"ConditionId,omitempty"`
	QuantityOrdered int    `json:"QuantityOrdered"`
}

type ordersResponse struct {
	Payload struct {
		Orders    []OrderHeader `json:"Orders"`
		NextToken string        `json:"NextToken,omitempty"`
	} `json:"payload"`
}

type orderItemsResponse struct {
	Payload struct {
		AmazonOrderID string     `json:"AmazonOrderId"`
		OrderItems    []LineItem `json:"OrderItems"`
		NextToken     string     `json:"NextToken,omitempty"`
	} `json:"payload"`
}

type buyerInfoResponse struct {
	Payload struct {
		AmazonOrderID string `json:"AmazonOrderId"`
		BuyerEmail    string `json:"BuyerEmail,omitempty"`
	} `json:"payload"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spapi %s: status %d: %s", e.Path, e.Status, e.Body)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
