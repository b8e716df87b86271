package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ReviewSend/internal/csvparser"
	"ReviewSend/internal/models"
	"ReviewSend/internal/sweep"
)

const maxImportBytes = 1 << 20

type SweepRunner interface {
	Run(ctx context.Context, opts sweep.Options) (sweep.Report, error)
}

type Store interface {
	GetSeller(ctx context.Context, id int64) (*models.Seller, error)
	AddExcludedAsin(ctx context.Context, sellerID int64, asin string) error
	ListSentEmails(ctx context.Context, sellerID int64, limit, offset int) ([]models.SentEmailRecord, error)
}

type Handler struct {
	Store  Store
	Runner SweepRunner
	Log    *zap.Logger
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunSweep runs a sweep synchronously, optionally scoped with ?seller= and
// ?days= for the ingestion lookback.
func (h *Handler) RunSweep(c *gin.Context) {
	var opts sweep.Options

	if v := c.Query("seller"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller"})
			return
		}
		opts.SellerID = id
	}

	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		opts.Lookback = time.Duration(days) * 24 * time.Hour
	}

	report, err := h.Runner.Run(c.Request.Context(), opts)
	if errors.Is(err, sweep.ErrSellerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.Log.Error("sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListSentEmails(c *gin.Context) {
	seller, ok := h.seller(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	records, err := h.Store.ListSentEmails(c.Request.Context(), seller.ID, limit, offset)
	if err != nil {
		h.Log.Error("failed to list sent emails", zap.Int64("seller_id", seller.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sent emails"})
		return
	}
	if records == nil {
		records = []models.SentEmailRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"sent_emails": records, "limit": limit, "offset": offset})
}

// ImportExcludedAsins adds every ASIN in a CSV request body to the seller's
// exclusion list. Orders already stored are not affected.
func (h *Handler) ImportExcludedAsins(c *gin.Context) {
	seller, ok := h.seller(c)
	if !ok {
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	asins, err := csvparser.ParseAsins(body, 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, asin := range asins {
		if err := h.Store.AddExcludedAsin(c.Request.Context(), seller.ID, asin); err != nil {
			h.Log.Error("failed to add excluded asin",
				zap.Int64("seller_id", seller.ID),
				zap.String("asin", asin),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store excluded asins"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"imported": len(asins)})
}

func (h *Handler) seller(c *gin.Context) (*models.Seller, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller id"})
		return nil, false
	}

	seller, err := h.Store.GetSeller(c.Request.Context(), id)
	if err != nil {
		h.Log.Error("failed to load seller", zap.Int64("seller_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load seller"})
		return nil, false
	}
	if seller == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
		return nil, false
	}
	return seller, true
}
