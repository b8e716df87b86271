package models

import "time"

// Template belongs to a seller's default set.
type Template struct {
	ID                int64     `json:"id"`
	SellerID          int64     `json:"seller_id"`
	Name              string    `json:"name"`
	Subject           string    `json:"subject"`
	Content           string    `json:"content"`
	IsDefault         bool      `json:"is_default"`
	DaysAfterShipping int       `json:"days_after_shipping"`
	CreatedAt         time.Time `json:"created_at"`
}

// AsinTemplate overrides the default set for one ASIN, either with its own
// text or by pointing at a Template.
type AsinTemplate struct {
	ID                   int64     `json:"id"`
	SellerID             int64     `json:"seller_id"`
	ASIN                 string    `json:"asin"`
	Subject              string    `json:"subject"`
	Content              string    `json:"content"`
	ReferencedTemplateID *int64    `json:"referenced_template_id,omitempty"`
	DaysAfterShipping    int       `json:"days_after_shipping"`
	CreatedAt            time.Time `json:"created_at"`
}

// HasOwnText reports whether both subject and content are set.
func (a AsinTemplate) HasOwnText() bool {
	return a.Subject != "" && a.Content != ""
}
