package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ReviewSend/internal/models"
)

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "reviewsend.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	runStoreSuite(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := NewPostgres(ctx, url)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer s.Close()

	_, err = s.Pool.Exec(ctx, "TRUNCATE sent_emails, orders, asin_templates, templates, excluded_asins, sellers RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	runStoreSuite(t, s)
}

var baseTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	seller := &models.Seller{
		Name:         "Acme",
		StoreName:    "Acme Store",
		Email:        fmt.Sprintf("owner-%d@acme.test", time.Now().UnixNano()),
		IsActive:     true,
		RefreshToken: "Atzr|token",
		Settings:     models.DefaultSellerSettings(),
	}
	if err := s.CreateSeller(ctx, seller); err != nil {
		t.Fatalf("create seller: %v", err)
	}

	t.Run("seller round trip", func(t *testing.T) {
		settings := seller.Settings
		settings.EmailingEnabled = true
		settings.SendWindowStart = 9
		settings.SendWindowEnd = 17
		if err := s.UpdateSellerSettings(ctx, seller.ID, settings); err != nil {
			t.Fatalf("update settings: %v", err)
		}

		got, err := s.GetSeller(ctx, seller.ID)
		if err != nil {
			t.Fatalf("get seller: %v", err)
		}
		if got == nil || got.Settings != settings {
			t.Fatalf("expected settings %+v, got %+v", settings, got)
		}

		missing, err := s.GetSeller(ctx, seller.ID+1000)
		if err != nil || missing != nil {
			t.Fatalf("expected nil seller, got %+v, %v", missing, err)
		}

		active, err := s.ListActiveSellers(ctx)
		if err != nil {
			t.Fatalf("list sellers: %v", err)
		}
		if len(active) != 1 || active[0].RefreshToken != "Atzr|token" {
			t.Fatalf("expected one active seller, got %+v", active)
		}
	})

	t.Run("excluded asins", func(t *testing.T) {
		for _, asin := range []string{"B0EXCL", "B0EXCL", "B0OTHER"} {
			if err := s.AddExcludedAsin(ctx, seller.ID, asin); err != nil {
				t.Fatalf("add excluded asin: %v", err)
			}
		}
		asins, err := s.ExcludedAsins(ctx, seller.ID)
		if err != nil {
			t.Fatalf("list excluded: %v", err)
		}
		if len(asins) != 2 {
			t.Fatalf("expected 2 excluded asins, got %v", asins)
		}
	})

	t.Run("one default template per seller", func(t *testing.T) {
		first := &models.Template{SellerID: seller.ID, Name: "a", Subject: "s", Content: "c", IsDefault: true}
		if err := s.CreateTemplate(ctx, first); err != nil {
			t.Fatalf("create template: %v", err)
		}
		second := &models.Template{SellerID: seller.ID, Name: "b", Subject: "s", Content: "c", IsDefault: true}
		if err := s.CreateTemplate(ctx, second); err == nil {
			t.Fatal("expected second default template to be rejected")
		}
		plain := &models.Template{SellerID: seller.ID, Name: "c", Subject: "s", Content: "c", DaysAfterShipping: 10}
		if err := s.CreateTemplate(ctx, plain); err != nil {
			t.Fatalf("create template: %v", err)
		}

		ref := plain.ID
		at := &models.AsinTemplate{SellerID: seller.ID, ASIN: "B0REF", ReferencedTemplateID: &ref}
		if err := s.CreateAsinTemplate(ctx, at); err != nil {
			t.Fatalf("create asin template: %v", err)
		}

		templates, err := s.ListTemplates(ctx, seller.ID)
		if err != nil || len(templates) != 2 {
			t.Fatalf("expected 2 templates, got %d (%v)", len(templates), err)
		}
		asinTemplates, err := s.ListAsinTemplates(ctx, seller.ID)
		if err != nil || len(asinTemplates) != 1 {
			t.Fatalf("expected 1 asin template, got %d (%v)", len(asinTemplates), err)
		}
		if asinTemplates[0].ReferencedTemplateID == nil || *asinTemplates[0].ReferencedTemplateID != plain.ID {
			t.Fatalf("expected reference to %d, got %v", plain.ID, asinTemplates[0].ReferencedTemplateID)
		}
	})

	t.Run("insert is idempotent", func(t *testing.T) {
		o := newTestOrder(seller.ID, "111-0000001", "B0DUP", baseTime.Add(-10*24*time.Hour))
		inserted, err := s.InsertOrderIfAbsent(ctx, &o)
		if err != nil || !inserted {
			t.Fatalf("expected first insert, got %v, %v", inserted, err)
		}

		again := newTestOrder(seller.ID, "111-0000001", "B0DUP", baseTime)
		again.EligibleForEmail = false
		inserted, err = s.InsertOrderIfAbsent(ctx, &again)
		if err != nil || inserted {
			t.Fatalf("expected duplicate to be ignored, got %v, %v", inserted, err)
		}

		stored, err := s.FindOrderByUniqueKey(ctx, seller.ID, "111-0000001", "B0DUP")
		if err != nil || stored == nil {
			t.Fatalf("find order: %v", err)
		}
		if !stored.EligibleForEmail || stored.ID != o.ID {
			t.Fatalf("expected original row to survive, got %+v", stored)
		}
		if stored.BuyerEmail == nil || *stored.BuyerEmail != "buyer@marketplace.amazon.test" {
			t.Fatalf("unexpected buyer email %v", stored.BuyerEmail)
		}
		if !stored.ShippingDate.Equal(baseTime.Add(-10 * 24 * time.Hour)) {
			t.Fatalf("unexpected shipping date %v", stored.ShippingDate)
		}

		missing, err := s.FindOrderByUniqueKey(ctx, seller.ID, "111-0000001", "B0NONE")
		if err != nil || missing != nil {
			t.Fatalf("expected nil order, got %+v, %v", missing, err)
		}
	})

	t.Run("concurrent inserts store one row", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		var inserted int
		var ids []int64

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o := newTestOrder(seller.ID, "555-0000001", "B0SAME", baseTime.Add(-8*24*time.Hour))
				ok, err := s.InsertOrderIfAbsent(ctx, &o)
				if err != nil {
					t.Errorf("insert: %v", err)
					return
				}
				if ok {
					mu.Lock()
					inserted++
					ids = append(ids, o.ID)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if inserted != 1 {
			t.Fatalf("expected exactly one insert, got %d", inserted)
		}

		pending, err := s.PendingOrders(ctx, seller.ID, baseTime)
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		var rows int
		for _, o := range pending {
			if o.AmazonOrderID == "555-0000001" && o.ASIN == "B0SAME" {
				rows++
				if o.ID != ids[0] {
					t.Fatalf("stored row %d, insert reported %d", o.ID, ids[0])
				}
			}
		}
		if rows != 1 {
			t.Fatalf("expected one stored row, got %d", rows)
		}
	})

	t.Run("pending orders", func(t *testing.T) {
		due := newTestOrder(seller.ID, "222-0000001", "B0DUE", baseTime.Add(-8*24*time.Hour))
		recent := newTestOrder(seller.ID, "222-0000002", "B0NEW", baseTime.Add(-2*24*time.Hour))
		ineligible := newTestOrder(seller.ID, "222-0000003", "B0NO", baseTime.Add(-9*24*time.Hour))
		ineligible.EligibleForEmail = false
		noEmail := newTestOrder(seller.ID, "222-0000004", "B0ANON", baseTime.Add(-9*24*time.Hour))
		noEmail.BuyerEmail = nil
		unshipped := newTestOrder(seller.ID, "222-0000005", "B0WAIT", baseTime)
		unshipped.ShippingDate = nil

		for _, o := range []*models.Order{&due, &recent, &ineligible, &noEmail, &unshipped} {
			if _, err := s.InsertOrderIfAbsent(ctx, o); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		pending, err := s.PendingOrders(ctx, seller.ID, baseTime.Add(-7*24*time.Hour))
		if err != nil {
			t.Fatalf("pending: %v", err)
		}
		found := map[string]bool{}
		for _, o := range pending {
			found[o.ASIN] = true
		}
		if !found["B0DUE"] || !found["B0DUP"] {
			t.Fatalf("expected due orders, got %v", found)
		}
		for _, asin := range []string{"B0NEW", "B0NO", "B0ANON", "B0WAIT"} {
			if found[asin] {
				t.Fatalf("order %s should not be pending", asin)
			}
		}
	})

	t.Run("concurrent claims send once", func(t *testing.T) {
		o := newTestOrder(seller.ID, "333-0000001", "B0RACE", baseTime.Add(-8*24*time.Hour))
		if _, err := s.InsertOrderIfAbsent(ctx, &o); err != nil {
			t.Fatalf("insert: %v", err)
		}

		const workers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		var sent int

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				token := fmt.Sprintf("token-%d", i)
				ok, err := s.ClaimOrder(ctx, o.ID, token, baseTime.Add(time.Minute), baseTime)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if !ok {
					return
				}
				rec := &models.SentEmailRecord{
					SellerID:      seller.ID,
					AmazonOrderID: o.AmazonOrderID,
					ASIN:          o.ASIN,
					Subject:       "Thanks",
					Content:       "<p>hi</p>",
					SentAt:        baseTime,
				}
				marked, err := s.MarkSent(ctx, o.ID, token, rec)
				if err != nil {
					t.Errorf("mark sent: %v", err)
					return
				}
				if marked {
					mu.Lock()
					sent++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if sent != 1 {
			t.Fatalf("expected exactly one send, got %d", sent)
		}

		stored, err := s.FindOrderByUniqueKey(ctx, seller.ID, o.AmazonOrderID, o.ASIN)
		if err != nil || stored == nil || !stored.EmailSent || stored.SentAt == nil {
			t.Fatalf("expected order marked sent, got %+v (%v)", stored, err)
		}

		ok, err := s.ClaimOrder(ctx, o.ID, "late", baseTime.Add(time.Hour), baseTime.Add(30*time.Minute))
		if err != nil || ok {
			t.Fatalf("sent order must not be claimable, got %v, %v", ok, err)
		}

		records, err := s.ListSentEmails(ctx, seller.ID, 10, 0)
		if err != nil {
			t.Fatalf("list sent: %v", err)
		}
		count := 0
		for _, r := range records {
			if r.OrderID == o.ID {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("expected one sent record, got %d", count)
		}
	})

	t.Run("expired claim can be taken over", func(t *testing.T) {
		o := newTestOrder(seller.ID, "444-0000001", "B0LEASE", baseTime.Add(-8*24*time.Hour))
		if _, err := s.InsertOrderIfAbsent(ctx, &o); err != nil {
			t.Fatalf("insert: %v", err)
		}

		ok, err := s.ClaimOrder(ctx, o.ID, "first", baseTime.Add(time.Minute), baseTime)
		if err != nil || !ok {
			t.Fatalf("expected first claim, got %v, %v", ok, err)
		}
		ok, err = s.ClaimOrder(ctx, o.ID, "second", baseTime.Add(2*time.Minute), baseTime.Add(30*time.Second))
		if err != nil || ok {
			t.Fatalf("live claim must block, got %v, %v", ok, err)
		}
		ok, err = s.ClaimOrder(ctx, o.ID, "second", baseTime.Add(5*time.Minute), baseTime.Add(2*time.Minute))
		if err != nil || !ok {
			t.Fatalf("expected takeover of expired claim, got %v, %v", ok, err)
		}

		rec := &models.SentEmailRecord{SellerID: seller.ID, AmazonOrderID: o.AmazonOrderID, ASIN: o.ASIN, Subject: "s", Content: "c", SentAt: baseTime}
		marked, err := s.MarkSent(ctx, o.ID, "first", rec)
		if err != nil || marked {
			t.Fatalf("stale token must not mark sent, got %v, %v", marked, err)
		}

		if err := s.ReleaseClaim(ctx, o.ID, "second"); err != nil {
			t.Fatalf("release: %v", err)
		}
		ok, err = s.ClaimOrder(ctx, o.ID, "third", baseTime.Add(5*time.Minute), baseTime.Add(2*time.Minute))
		if err != nil || !ok {
			t.Fatalf("released order must be claimable, got %v, %v", ok, err)
		}
	})
}

func newTestOrder(sellerID int64, amazonOrderID, asin string, shipped time.Time) models.Order {
	email := "buyer@marketplace.amazon.test"
	return models.Order{
		SellerID:         sellerID,
		AmazonOrderID:    amazonOrderID,
		ASIN:             asin,
		ProductName:      "Widget " + asin,
		OrderDate:        shipped.Add(-24 * time.Hour),
		ShippingDate:     &shipped,
		BuyerEmail:       &email,
		IsFBA:            true,
		EligibleForEmail: true,
	}
}
