// Package resolver picks the template used for a review request.
//
// Resolution walks an ordered list of strategies and stops at the first one
// that returns a match. Two chains exist: the threshold chain ignores day
// counts, and the exact-day chain only considers templates keyed to the
// order's current days-since-shipping.
package resolver

import (
	"time"

	"ReviewSend/internal/models"
)

type Source int

const (
	SourceNone Source = iota
	SourceAsinDirect
	SourceAsinReferenced
	SourceSellerDefault
	SourceAnyTemplate
	SourceDefaultForDay
)

func (s Source) String() string {
	switch s {
	case SourceAsinDirect:
		return "asin_direct"
	case SourceAsinReferenced:
		return "asin_referenced"
	case SourceSellerDefault:
		return "seller_default"
	case SourceAnyTemplate:
		return "any_template"
	case SourceDefaultForDay:
		return "default_for_day"
	default:
		return "none"
	}
}

// Match is the resolved subject and content plus where they came from.
type Match struct {
	Source     Source
	TemplateID int64
	Subject    string
	Content    string
}

// Set is every template a seller owns.
type Set struct {
	Templates     []models.Template
	AsinTemplates []models.AsinTemplate
}

func (s *Set) templateByID(id int64) (models.Template, bool) {
	for _, t := range s.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

// Strategy returns a match for the order or false to defer to the next one.
// days is the order's whole days since shipping.
type Strategy func(order models.Order, set *Set, days int) (Match, bool)

type Resolver struct {
	strategies []Strategy
	keyedByDay bool
}

func New(keyedByDay bool, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, keyedByDay: keyedByDay}
}

// NewThreshold resolves ASIN direct, ASIN referenced, seller default, then any template.
func NewThreshold() *Resolver {
	return New(false,
		AsinDirect(false),
		AsinReferenced(false),
		SellerDefault,
		AnyTemplate,
	)
}

// NewExactDay only matches templates whose day count equals the order's.
func NewExactDay() *Resolver {
	return New(true,
		AsinDirect(true),
		AsinReferenced(true),
		DefaultForDay,
	)
}

// KeyedByDay reports whether matches depend on the order's day count.
func (r *Resolver) KeyedByDay() bool {
	return r.keyedByDay
}

func (r *Resolver) Resolve(order models.Order, set *Set, now time.Time) (Match, bool) {
	days := order.DaysSinceShipping(now)
	if r.keyedByDay && days < 0 {
		return Match{}, false
	}
	for _, strategy := range r.strategies {
		if m, ok := strategy(order, set, days); ok {
			return m, true
		}
	}
	return Match{}, false
}

func asinTemplatesFor(order models.Order, set *Set, byDay bool, days int) []models.AsinTemplate {
	var out []models.AsinTemplate
	for _, a := range set.AsinTemplates {
		if a.ASIN != order.ASIN {
			continue
		}
		if byDay && a.DaysAfterShipping != days {
			continue
		}
		out = append(out, a)
	}
	return out
}

// AsinDirect matches an ASIN template that carries its own subject and content.
func AsinDirect(byDay bool) Strategy {
	return func(order models.Order, set *Set, days int) (Match, bool) {
		for _, a := range asinTemplatesFor(order, set, byDay, days) {
			if a.HasOwnText() {
				return Match{Source: SourceAsinDirect, TemplateID: a.ID, Subject: a.Subject, Content: a.Content}, true
			}
		}
		return Match{}, false
	}
}

// AsinReferenced follows an ASIN template's pointer into the default set.
// A dangling pointer falls through.
func AsinReferenced(byDay bool) Strategy {
	return func(order models.Order, set *Set, days int) (Match, bool) {
		for _, a := range asinTemplatesFor(order, set, byDay, days) {
			if a.ReferencedTemplateID == nil {
				continue
			}
			if t, ok := set.templateByID(*a.ReferencedTemplateID); ok {
				return fromTemplate(SourceAsinReferenced, t), true
			}
		}
		return Match{}, false
	}
}

func SellerDefault(order models.Order, set *Set, days int) (Match, bool) {
	for _, t := range set.Templates {
		if t.IsDefault {
			return fromTemplate(SourceSellerDefault, t), true
		}
	}
	return Match{}, false
}

// AnyTemplate picks the template with the lowest ID.
func AnyTemplate(order models.Order, set *Set, days int) (Match, bool) {
	if len(set.Templates) == 0 {
		return Match{}, false
	}
	best := set.Templates[0]
	for _, t := range set.Templates[1:] {
		if t.ID < best.ID {
			best = t
		}
	}
	return fromTemplate(SourceAnyTemplate, best), true
}

// DefaultForDay picks a template keyed to the day count, preferring the
// default-flagged one.
func DefaultForDay(order models.Order, set *Set, days int) (Match, bool) {
	var found *models.Template
	for i := range set.Templates {
		t := &set.Templates[i]
		if t.DaysAfterShipping != days {
			continue
		}
		if t.IsDefault {
			return fromTemplate(SourceDefaultForDay, *t), true
		}
		if found == nil || t.ID < found.ID {
			found = t
		}
	}
	if found == nil {
		return Match{}, false
	}
	return fromTemplate(SourceDefaultForDay, *found), true
}

func fromTemplate(src Source, t models.Template) Match {
	return Match{Source: src, TemplateID: t.ID, Subject: t.Subject, Content: t.Content}
}
