package service

import (
	"context"
	"fmt"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository"
)

// dispatcher fires the best-effort side effects that follow a committed state
// change: emails and in-app notifications. Failures are logged and swallowed;
// they never roll back or fail the operation that triggered them.
type dispatcher struct {
	users    repository.UserRepository
	notes    repository.NotificationRepository
	emailSvc EmailService
}

func newDispatcher(users repository.UserRepository, notes repository.NotificationRepository, emailSvc EmailService) *dispatcher {
	return &dispatcher{users: users, notes: notes, emailSvc: emailSvc}
}

// run executes one side effect with its own timeout, detached from the
// request context so a cancelled request does not drop the effect.
func (d *dispatcher) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("side effect failed", "effect", name, "error", err)
	}
}

func (d *dispatcher) notify(ctx context.Context, userID int64, category, title, message string, attrs map[string]string) error {
	return d.notes.Create(ctx, &domain.Notification{
		UserID:     userID,
		Category:   category,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	})
}

// orderStatusChanged tells the counterparty about a transition the actor made.
func (d *dispatcher) orderStatusChanged(order *domain.Order, actorID int64) {
	recipientID := order.RenterID
	if actorID == order.RenterID {
		recipientID = order.OwnerID
	}
	d.run("order_status_changed", func(ctx context.Context) error {
		recipient, err := d.users.GetByID(ctx, recipientID)
		if err != nil {
			return err
		}
		if err := d.emailSvc.SendOrderStatusEmail(ctx, recipient.Email, recipient.Name, order.SnapshotTitle, order.Status); err != nil {
			logger.Warn("order status email failed", "order_id", order.ID, "error", err)
		}
		return d.notify(ctx, recipientID, "ORDER",
			fmt.Sprintf("Order %s", order.Status),
			fmt.Sprintf("Order #%d for %q is now %s", order.ID, order.SnapshotTitle, order.Status),
			map[string]string{"order_id": fmt.Sprintf("%d", order.ID), "status": string(order.Status)})
	})
}

func (d *dispatcher) extensionRequested(order *domain.Order, req *domain.ExtensionRequest) {
	d.run("extension_requested", func(ctx context.Context) error {
		return d.notify(ctx, order.OwnerID, "EXTENSION",
			"Extension requested",
			fmt.Sprintf("The renter asked to extend order #%d until %s", order.ID, req.NewEndAt.Format("2006-01-02 15:04")),
			map[string]string{"order_id": fmt.Sprintf("%d", order.ID), "request_id": fmt.Sprintf("%d", req.ID)})
	})
}

func (d *dispatcher) extensionDecided(order *domain.Order, req *domain.ExtensionRequest) {
	approved := req.Status == domain.ExtensionStatusApproved
	d.run("extension_decided", func(ctx context.Context) error {
		renter, err := d.users.GetByID(ctx, order.RenterID)
		if err != nil {
			return err
		}
		if err := d.emailSvc.SendExtensionDecisionEmail(ctx, renter.Email, renter.Name, order.SnapshotTitle, approved, req.NewEndAt); err != nil {
			logger.Warn("extension decision email failed", "order_id", order.ID, "error", err)
		}
		title := "Extension rejected"
		if approved {
			title = "Extension approved"
		}
		return d.notify(ctx, order.RenterID, "EXTENSION", title,
			fmt.Sprintf("Your extension request for order #%d was decided", order.ID),
			map[string]string{"order_id": fmt.Sprintf("%d", order.ID), "request_id": fmt.Sprintf("%d", req.ID), "status": string(req.Status)})
	})
}

func (d *dispatcher) contractSigned(order *domain.Order, contract *domain.Contract) {
	d.run("contract_signed", func(ctx context.Context) error {
		for _, userID := range []int64{order.RenterID, order.OwnerID} {
			user, err := d.users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			if err := d.emailSvc.SendContractSignedEmail(ctx, user.Email, user.Name, order.SnapshotTitle); err != nil {
				logger.Warn("contract signed email failed", "contract_id", contract.ID, "error", err)
			}
			if err := d.notify(ctx, userID, "CONTRACT", "Contract fully signed",
				fmt.Sprintf("The contract for order #%d is now signed by both parties", order.ID),
				map[string]string{"order_id": fmt.Sprintf("%d", order.ID), "contract_id": fmt.Sprintf("%d", contract.ID)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *dispatcher) pointsAwarded(userID, points int64, reason string) {
	d.run("points_awarded", func(ctx context.Context) error {
		return d.notify(ctx, userID, "LOYALTY", "Points earned",
			fmt.Sprintf("You earned %d points: %s", points, reason),
			map[string]string{"points": fmt.Sprintf("%d", points)})
	})
}
