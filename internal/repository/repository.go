package repository

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePoints(ctx context.Context, userID, points int64) error
}

type ItemRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	// DecrementAvailable conditionally takes one unit; returns a conflict
	// error when availableQuantity is already exhausted.
	DecrementAvailable(ctx context.Context, itemID int64) error
	IncrementAvailable(ctx context.Context, itemID int64) error
	// DecrementQuantity permanently removes a lost unit from stock.
	DecrementQuantity(ctx context.Context, itemID int64) error
	IncrementRentCount(ctx context.Context, itemID int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
	SetContractSigned(ctx context.Context, orderID int64, signed bool) error
	ListByRenter(ctx context.Context, renterID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error)
	ListByOwner(ctx context.Context, ownerID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error)
	// ListEndingBetween returns in-progress orders whose end time falls in
	// [from, to); used by the return-reminder job.
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)
}

type DiscountRepository interface {
	Create(ctx context.Context, d *domain.Discount) error
	GetByCode(ctx context.Context, code string) (*domain.Discount, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// IncrementUsage bumps used_count only while under the usage limit;
	// returns a conflict error when the limit is already consumed.
	IncrementUsage(ctx context.Context, discountID int64) error
	GetAssignment(ctx context.Context, discountID, userID int64) (*domain.DiscountAssignment, error)
	CreateAssignment(ctx context.Context, a *domain.DiscountAssignment) error
	// IncrementAssignmentUsage mirrors IncrementUsage at the per-user level.
	IncrementAssignmentUsage(ctx context.Context, assignmentID int64) error
	CreateRedemption(ctx context.Context, r *domain.DiscountRedemption) error
	// MarkRedemptionsRefunded flips every APPLIED redemption of an order to
	// REFUNDED; used when the order is cancelled.
	MarkRedemptionsRefunded(ctx context.Context, orderID int64) error
}

type ExtensionRepository interface {
	Create(ctx context.Context, req *domain.ExtensionRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ExtensionRequest, error)
	GetPendingByOrder(ctx context.Context, orderID int64) (*domain.ExtensionRequest, error)
	Update(ctx context.Context, req *domain.ExtensionRequest) error
	ListByOrder(ctx context.Context, orderID int64) ([]domain.ExtensionRequest, error)
}

type ContractRepository interface {
	Create(ctx context.Context, c *domain.Contract) error
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)
	GetByOrder(ctx context.Context, orderID int64) (*domain.Contract, error)
	Update(ctx context.Context, c *domain.Contract) error
	GetTemplate(ctx context.Context, id int64) (*domain.ContractTemplate, error)
	GetDefaultTemplate(ctx context.Context) (*domain.ContractTemplate, error)
}

type SignatureRepository interface {
	CreateUserSignature(ctx context.Context, s *domain.UserSignature) error
	GetActiveUserSignature(ctx context.Context, userID int64) (*domain.UserSignature, error)
	GetUserSignature(ctx context.Context, id int64) (*domain.UserSignature, error)
	UpdateUserSignature(ctx context.Context, s *domain.UserSignature) error
	// CountValidReferences counts valid contract signatures pointing at a
	// user signature; a non-zero count freezes it.
	CountValidReferences(ctx context.Context, signatureID int64) (int32, error)

	CreateContractSignature(ctx context.Context, cs *domain.ContractSignature) error
	GetContractSignature(ctx context.Context, contractID, signerID int64) (*domain.ContractSignature, error)
	UpdateContractSignaturePosition(ctx context.Context, id int64, x, y float64) error
	ListByContract(ctx context.Context, contractID int64) ([]domain.ContractSignature, error)
	CountValidByContract(ctx context.Context, contractID int64) (int32, error)
}

type LoyaltyRepository interface {
	// Append writes one ledger row carrying its post-application balance.
	Append(ctx context.Context, tx *domain.LoyaltyTransaction) error
	List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.LoyaltyTransaction, int32, error)
	// HasTypeBetween reports whether the user already has a row of the given
	// type in [from, to); backs the daily-login idempotency check.
	HasTypeBetween(ctx context.Context, userID int64, t domain.LoyaltyTransactionType, from, to time.Time) (bool, error)
	ListExpiredCredits(ctx context.Context, asOf time.Time, limit int32) ([]domain.LoyaltyTransaction, error)
	MarkExpiredProcessed(ctx context.Context, id int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// UnitOfWork bundles every repository bound to one transaction. It is the
// only way to perform multi-entity writes.
type UnitOfWork struct {
	Users         UserRepository
	Items         ItemRepository
	Orders        OrderRepository
	Discounts     DiscountRepository
	Extensions    ExtensionRepository
	Contracts     ContractRepository
	Signatures    SignatureRepository
	Loyalty       LoyaltyRepository
	Notifications NotificationRepository
	AuditLogs     AuditLogRepository
}

// TxManager runs fn inside a single atomic transaction. Any error aborts the
// whole transaction; there is no partial-commit path.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(uow *UnitOfWork) error) error
}
