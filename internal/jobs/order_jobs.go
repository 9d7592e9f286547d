package jobs

import (
	"context"
	"fmt"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
)

// SendReturnReminders notifies renters whose rental ends within the next day.
func (jr *JobRunner) SendReturnReminders() {
	jr.runWithRecovery("SendReturnReminders", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		now := time.Now()
		orders, err := jr.store.Orders.ListEndingBetween(ctx, now, now.Add(24*time.Hour))
		if err != nil {
			logger.Error("Failed to list orders ending soon", "error", err)
			return
		}

		sent := 0
		for _, order := range orders {
			renter, err := jr.store.Users.GetByID(ctx, order.RenterID)
			if err != nil {
				logger.Error("Failed to load renter for reminder", "order_id", order.ID, "error", err)
				continue
			}
			if err := jr.services.Email.SendReturnReminderEmail(ctx, renter.Email, renter.Name, order.SnapshotTitle, order.EndAt); err != nil {
				logger.Error("Failed to send return reminder", "order_id", order.ID, "error", err)
			}
			note := &domain.Notification{
				UserID:   order.RenterID,
				Category: "ORDER",
				Title:    "Return due soon",
				Message:  fmt.Sprintf("Your rental of %q ends on %s", order.SnapshotTitle, order.EndAt.Format("January 2, 2006 15:04")),
				Attributes: map[string]string{
					"order_id": fmt.Sprintf("%d", order.ID),
					"type":     "RETURN_REMINDER",
				},
			}
			if err := jr.store.Notifications.Create(ctx, note); err != nil {
				logger.Error("Failed to create reminder notification", "order_id", order.ID, "error", err)
				continue
			}
			sent++
		}
		logger.Info("Sent return reminders", "count", sent, "candidates", len(orders))
	})
}
