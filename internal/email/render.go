package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var layout = template.Must(template.ParseFS(templateFS, "templates/review_request.html"))

// Placeholders are the values substituted into seller templates.
type Placeholders struct {
	StoreName   string
	SellerName  string
	ProductName string
	OrderID     string
	ASIN        string
	OrderDate   time.Time
}

// Apply replaces known tokens in plain text such as a subject line.
// Unknown tokens are left as written.
func (p Placeholders) Apply(text string) string {
	return p.replacer(func(v string) string { return v }).Replace(text)
}

// ApplyHTML replaces known tokens in seller-authored HTML. Substituted values
// are escaped; the surrounding markup is not.
func (p Placeholders) ApplyHTML(content string) string {
	return p.replacer(template.HTMLEscapeString).Replace(content)
}

func (p Placeholders) replacer(escape func(string) string) *strings.Replacer {
	orderDate := ""
	if !p.OrderDate.IsZero() {
		orderDate = p.OrderDate.Format("02/01/2006")
	}

	return strings.NewReplacer(
		"{store_name}", escape(p.StoreName),
		"{product_name}", escape(p.ProductName),
		"{order_id}", escape(p.OrderID),
		"{order_date}", orderDate,
		"{customer_name}", "",
		"{seller_name}", escape(p.SellerName),
		"{asin}", escape(p.ASIN),
		// Tokens used by templates imported from the legacy Japanese storefront.
		"%%注文ID%%", escape(p.OrderID),
		"%%商品名%%", escape(p.ProductName),
		"%%ASIN%%", escape(p.ASIN),
	)
}

type layoutData struct {
	Subject   string
	StoreName string
	Content   template.HTML
	IsCopy    bool
	Year      int
}

// RenderBody wraps seller-authored HTML content in the review request layout.
func RenderBody(storeName, subject, content string, isCopy bool, now time.Time) (string, error) {
	var body bytes.Buffer
	err := layout.Execute(&body, layoutData{
		Subject:   subject,
		StoreName: storeName,
		Content:   template.HTML(content),
		IsCopy:    isCopy,
		Year:      now.Year(),
	})
	if err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}
