package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ReviewSend/internal/email"
	"ReviewSend/internal/metrics"
	"ReviewSend/internal/models"
	"ReviewSend/internal/resolver"
)

type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Mailer delivers one HTML email. email.Sender satisfies it.
type Mailer interface {
	Deliver(ctx context.Context, to, subject, htmlBody string, isCopy bool) error
}

// ClaimStore is the part of the store that guards a send.
type ClaimStore interface {
	ClaimOrder(ctx context.Context, orderID int64, token string, until, now time.Time) (bool, error)
	ReleaseClaim(ctx context.Context, orderID int64, token string) error
	MarkSent(ctx context.Context, orderID int64, token string, rec *models.SentEmailRecord) (bool, error)
}

// Sender delivers a review request at most once per order.
type Sender struct {
	store    ClaimStore
	mailer   Mailer
	limiter  *rate.Limiter
	claimTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewSender(store ClaimStore, mailer Mailer, limiter *rate.Limiter, claimTTL time.Duration, logger *zap.Logger) *Sender {
	return &Sender{
		store:    store,
		mailer:   mailer,
		limiter:  limiter,
		claimTTL: claimTTL,
		log:      logger,
		now:      time.Now,
	}
}

func (s *Sender) Send(ctx context.Context, order models.Order, seller models.Seller, match resolver.Match) Outcome {
	if order.EmailSent || order.BuyerEmail == nil || *order.BuyerEmail == "" {
		return OutcomeSkipped
	}

	log := s.log.With(
		zap.Int64("seller_id", seller.ID),
		zap.String("amazon_order_id", order.AmazonOrderID),
		zap.String("asin", order.ASIN),
	)

	// ----------------------------
	// Claim
	// ----------------------------
	token := uuid.NewString()
	now := s.now()
	claimed, err := s.store.ClaimOrder(ctx, order.ID, token, now.Add(s.claimTTL), now)
	if err != nil {
		log.Error("failed to claim order", zap.Error(err))
		metrics.EmailFailures.Inc()
		return OutcomeFailed
	}
	if !claimed {
		log.Debug("order already claimed or sent")
		return OutcomeSkipped
	}

	// ----------------------------
	// Render
	// ----------------------------
	ph := email.Placeholders{
		StoreName:   seller.StoreName,
		SellerName:  seller.Name,
		ProductName: order.ProductName,
		OrderID:     order.AmazonOrderID,
		ASIN:        order.ASIN,
		OrderDate:   order.OrderDate,
	}
	subject := ph.Apply(match.Subject)
	content := ph.ApplyHTML(match.Content)

	body, err := email.RenderBody(seller.StoreName, subject, content, false, now)
	if err != nil {
		log.Error("failed to render email", zap.Error(err))
		s.release(ctx, log, order.ID, token)
		metrics.EmailFailures.Inc()
		return OutcomeFailed
	}

	// ----------------------------
	// Rate Limit
	// ----------------------------
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Warn("rate limiter stopped by context", zap.Error(err))
			s.release(ctx, log, order.ID, token)
			return OutcomeSkipped
		}
	}

	// ----------------------------
	// Send Email
	// ----------------------------
	if err := s.mailer.Deliver(ctx, *order.BuyerEmail, subject, body, false); err != nil {
		log.Error("review request send failed", zap.Error(err))
		s.release(ctx, log, order.ID, token)
		metrics.EmailFailures.Inc()
		return OutcomeFailed
	}

	if seller.Settings.WantsCopy() && seller.Email != "" {
		s.sendCopy(ctx, log, seller, subject, content, now)
	}

	// ----------------------------
	// Mark as Sent
	// ----------------------------
	rec := &models.SentEmailRecord{
		SellerID:      seller.ID,
		AmazonOrderID: order.AmazonOrderID,
		ASIN:          order.ASIN,
		Subject:       subject,
		Content:       content,
		SentAt:        s.now(),
	}
	marked, err := s.store.MarkSent(context.WithoutCancel(ctx), order.ID, token, rec)
	if err != nil {
		// The lease stays in place so no other sweep resends before it expires.
		log.Error("email delivered but not recorded", zap.Error(err))
		metrics.EmailFailures.Inc()
		return OutcomeFailed
	}
	if !marked {
		log.Error("claim lost before send was recorded", zap.Duration("claim_ttl", s.claimTTL))
		metrics.EmailFailures.Inc()
		return OutcomeFailed
	}

	log.Info("review request sent", zap.Int64("template_id", match.TemplateID), zap.Stringer("source", match.Source))
	metrics.EmailsSent.Inc()
	return OutcomeSent
}

func (s *Sender) sendCopy(ctx context.Context, log *zap.Logger, seller models.Seller, subject, content string, now time.Time) {
	body, err := email.RenderBody(seller.StoreName, subject, content, true, now)
	if err == nil {
		err = s.mailer.Deliver(ctx, seller.Email, subject, body, true)
	}
	if err != nil {
		log.Warn("seller copy send failed", zap.String("to", seller.Email), zap.Error(err))
	}
}

func (s *Sender) release(ctx context.Context, log *zap.Logger, orderID int64, token string) {
	if err := s.store.ReleaseClaim(context.WithoutCancel(ctx), orderID, token); err != nil {
		log.Error("failed to release claim", zap.Error(err))
	}
}
