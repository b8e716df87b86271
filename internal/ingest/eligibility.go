package ingest

import (
	"strings"

	"ReviewSend/internal/models"
)

// AsinSet holds a seller's excluded ASINs. Lookups ignore case and
// surrounding space.
type AsinSet map[string]struct{}

func NewAsinSet(asins []string) AsinSet {
	set := make(AsinSet, len(asins))
	for _, a := range asins {
		set[NormalizeAsin(a)] = struct{}{}
	}
	return set
}

func (s AsinSet) Contains(asin string) bool {
	_, ok := s[NormalizeAsin(asin)]
	return ok
}

// NormalizeAsin is the canonical form used to compare ASINs.
func NormalizeAsin(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}

// Decide returns whether a review email may ever be attempted for the draft.
// Exclusion is checked separately by the caller, since an excluded ASIN is
// never stored at all.
func Decide(d models.OrderDraft, s models.SellerSettings) bool {
	if !s.EmailingEnabled {
		return false
	}
	if d.IsFBA && !s.SendFBA {
		return false
	}
	if !d.IsFBA && !s.SendSelfShip {
		return false
	}
	if d.IsUsed && !s.SendUsedItems {
		return false
	}
	return true
}
