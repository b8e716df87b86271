package models

import "time"

// SellerSettings is passed by value; callers never see changes made after they read it.
type SellerSettings struct {
	EmailingEnabled      bool `json:"emailing_enabled"`
	BCCEnabled           bool `json:"bcc_enabled"`
	SendWindowStart      int  `json:"send_window_start"`
	SendWindowEnd        int  `json:"send_window_end"`
	SendFBA              bool `json:"send_fba"`
	SendSelfShip         bool `json:"send_self_ship"`
	SendUsedItems        bool `json:"send_used_items"`
	CopyToSelf           bool `json:"copy_to_self"`
	MinDaysAfterShipping int  `json:"min_days_after_shipping"`
}

// DefaultSellerSettings mirrors the column defaults of the sellers table.
func DefaultSellerSettings() SellerSettings {
	return SellerSettings{
		SendWindowStart:      7,
		SendWindowEnd:        23,
		SendFBA:              true,
		SendSelfShip:         true,
		MinDaysAfterShipping: 7,
	}
}

// InWindow reports whether hour falls inside [SendWindowStart, SendWindowEnd].
// A start later than the end wraps past midnight.
func (s SellerSettings) InWindow(hour int) bool {
	if s.SendWindowStart <= s.SendWindowEnd {
		return hour >= s.SendWindowStart && hour <= s.SendWindowEnd
	}
	return hour >= s.SendWindowStart || hour <= s.SendWindowEnd
}

// WantsCopy reports whether the seller receives a copy of each buyer email.
func (s SellerSettings) WantsCopy() bool {
	return s.CopyToSelf || s.BCCEnabled
}

type Seller struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	StoreName     string         `json:"store_name"`
	Email         string         `json:"email"`
	IsActive      bool           `json:"is_active"`
	RefreshToken  string         `json:"-"`
	MarketplaceID string         `json:"marketplace_id,omitempty"`
	Settings      SellerSettings `json:"settings"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Credential is what the order transport needs to act on behalf of a seller.
type Credential struct {
	SellerID      int64
	RefreshToken  string
	MarketplaceID string
}

func (s Seller) Credential() Credential {
	return Credential{
		SellerID:      s.ID,
		RefreshToken:  s.RefreshToken,
		MarketplaceID: s.MarketplaceID,
	}
}

// CanIngest reports whether orders can be fetched for the seller.
func (s Seller) CanIngest() bool {
	return s.IsActive && s.RefreshToken != ""
}

type ExcludedAsin struct {
	ID        int64     `json:"id"`
	SellerID  int64     `json:"seller_id"`
	ASIN      string    `json:"asin"`
	CreatedAt time.Time `json:"created_at"`
}
