package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"ReviewSend/internal/models"
)

// SellerFunc processes one seller. It must be safe to call concurrently.
type SellerFunc func(ctx context.Context, seller models.Seller)

func StartPool(
	ctx context.Context,
	wg *sync.WaitGroup,
	workers int,
	jobs <-chan models.Seller,
	handle SellerFunc,
	logger *zap.Logger,
) {

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			logger.Debug("worker started", zap.Int("worker_id", id))

			for {
				select {

				case <-ctx.Done():
					logger.Debug("worker shutting down", zap.Int("worker_id", id))
					return

				case seller, ok := <-jobs:
					if !ok {
						logger.Debug("job channel closed", zap.Int("worker_id", id))
						return
					}

					handle(ctx, seller)
				}
			}
		}(i)
	}
}

// Run hands every seller to a pool of workers and waits for them to finish.
// Sellers not yet picked up when ctx is canceled are skipped.
func Run(
	ctx context.Context,
	workers int,
	sellers []models.Seller,
	handle SellerFunc,
	logger *zap.Logger,
) {

	if workers < 1 {
		workers = 1
	}

	jobs := make(chan models.Seller)
	var wg sync.WaitGroup

	StartPool(ctx, &wg, workers, jobs, handle, logger)

feed:
	for _, s := range sellers {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- s:
		}
	}

	// Stop accepting new jobs
	close(jobs)

	// Wait workers to finish
	wg.Wait()
}
