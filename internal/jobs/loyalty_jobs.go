package jobs

import (
	"context"
	"time"

	"renthub-backend/internal/logger"
)

// ExpireLoyaltyPoints offsets loyalty credits whose expiry date has passed.
func (jr *JobRunner) ExpireLoyaltyPoints() {
	jr.runWithRecovery("ExpireLoyaltyPoints", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		processed, err := jr.services.Loyalty.ExpirePoints(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to expire loyalty points", "error", err)
			return
		}
		logger.Info("Expired loyalty credits", "count", processed)
	})
}
