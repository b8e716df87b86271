package app

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"ReviewSend/internal/config"
	"ReviewSend/internal/models"
	"ReviewSend/internal/sweep"
)

func TestNewRunsEmptySweep(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabaseURL:    filepath.Join(t.TempDir(), "app.db"),
		SendRateLimit:  1,
		RetryAttempts:  1,
		DaysPolicy:     config.PolicyExactDay,
		Timezone:       "UTC",
		SweepWorkers:   2,
		LookbackDays:   30,
	}

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	// A seller without a refresh token is dispatched but never ingested, so
	// no Amazon call is made.
	seller := &models.Seller{Name: "n", StoreName: "s", Email: "a@b.test", IsActive: true, Settings: models.DefaultSellerSettings()}
	if err := a.Store.CreateSeller(context.Background(), seller); err != nil {
		t.Fatalf("create seller: %v", err)
	}

	report, err := a.Runner.Run(context.Background(), sweep.Options{})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Sellers != 1 || report.Sent != 0 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{DatabaseDriver: "mysql", DatabaseURL: "x"}
	if _, err := New(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error")
	}
}
