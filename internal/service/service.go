package service

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/utils"
)

// CreateOrderRequest carries everything a renter submits to open an order.
// Discount codes are optional; at most one public and one private code.
type CreateOrderRequest struct {
	ItemID                int64
	Quantity              int32
	StartAt               time.Time
	EndAt                 time.Time
	DiscountCode          string
	SecondaryDiscountCode string
}

// CompleteOrderRequest is the owner's final inspection report.
type CompleteOrderRequest struct {
	OrderID   int64
	Condition domain.ReturnCondition
	DamageFee int64
	Note      string
}

type OrderService interface {
	QuoteOrder(ctx context.Context, identity domain.Identity, req CreateOrderRequest) (*utils.Quote, int64, error)
	CreateOrder(ctx context.Context, identity domain.Identity, req CreateOrderRequest) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	StartOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	ReturnOrder(ctx context.Context, identity domain.Identity, orderID int64, note string) (*domain.Order, error)
	CompleteOrder(ctx context.Context, identity domain.Identity, req CompleteOrderRequest) (*domain.Order, error)
	CancelOrder(ctx context.Context, identity domain.Identity, orderID int64, reason string) (*domain.Order, error)
	DisputeOrder(ctx context.Context, identity domain.Identity, orderID int64, reason string) (*domain.Order, error)
	GetOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	ListRentals(ctx context.Context, identity domain.Identity, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error)
	ListLendings(ctx context.Context, identity domain.Identity, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error)
}

// CreateDiscountRequest covers both public campaigns and private grants.
type CreateDiscountRequest struct {
	Code              string
	Name              string
	Type              domain.DiscountType
	Value             int64
	MaxDiscountAmount int64
	MinOrderAmount    int64
	StartsAt          time.Time
	ExpiresAt         time.Time
	UsageLimit        int32
	IsPublic          bool
	OwnerID           int64
	ItemID            int64
	AllowedUserIDs    []int64
}

type AssignDiscountRequest struct {
	DiscountID   int64
	UserID       int64
	PerUserLimit int32
	EffectiveAt  *time.Time
	ExpiresAt    *time.Time
}

type DiscountService interface {
	// ValidateDiscount prices a code against an order preview without
	// consuming any usage.
	ValidateDiscount(ctx context.Context, identity domain.Identity, code string, itemID int64, rentalAmount int64) (*domain.Discount, int64, error)
	CreateDiscount(ctx context.Context, identity domain.Identity, req CreateDiscountRequest) (*domain.Discount, error)
	AssignDiscount(ctx context.Context, identity domain.Identity, req AssignDiscountRequest) (*domain.DiscountAssignment, error)
}

type ExtensionService interface {
	RequestExtension(ctx context.Context, identity domain.Identity, orderID int64, duration int32, note string) (*domain.ExtensionRequest, error)
	ApproveExtension(ctx context.Context, identity domain.Identity, requestID int64) (*domain.ExtensionRequest, error)
	RejectExtension(ctx context.Context, identity domain.Identity, requestID int64, reason string) (*domain.ExtensionRequest, error)
	ListExtensions(ctx context.Context, identity domain.Identity, orderID int64) ([]domain.ExtensionRequest, error)
}

// ContractView is a contract plus the signature overlays a renderer needs.
type ContractView struct {
	Contract   *domain.Contract           `json:"contract"`
	Signatures []domain.ContractSignature `json:"signatures"`
	Overlays   []domain.SignatureOverlay  `json:"overlays"`
}

type ContractService interface {
	CreateContract(ctx context.Context, identity domain.Identity, orderID, templateID int64) (*domain.Contract, error)
	GetContract(ctx context.Context, identity domain.Identity, contractID int64) (*ContractView, error)
	GetContractForOrder(ctx context.Context, identity domain.Identity, orderID int64) (*ContractView, error)
	AppendClause(ctx context.Context, identity domain.Identity, contractID int64, clause string) (*domain.Contract, error)
	// UploadSignature stores the caller's signature image, replacing any
	// active one that is not yet referenced by a signed contract.
	UploadSignature(ctx context.Context, identity domain.Identity, image []byte) (*domain.UserSignature, error)
	SignContract(ctx context.Context, identity domain.Identity, contractID int64, posX, posY float64) (*domain.Contract, error)
}

type LoyaltyService interface {
	GetBalance(ctx context.Context, identity domain.Identity) (int64, error)
	ListHistory(ctx context.Context, identity domain.Identity, page, pageSize int32) ([]domain.LoyaltyTransaction, int32, error)
	// AddDailyLoginPoints awards at most once per UTC calendar day.
	AddDailyLoginPoints(ctx context.Context, userID int64) (*domain.LoyaltyTransaction, error)
	// AwardOrderPoints credits points for a confirmed order; returns nil when
	// the order is too small to earn any.
	AwardOrderPoints(ctx context.Context, userID int64, order *domain.Order) (*domain.LoyaltyTransaction, error)
	// RevokeOrderPoints deducts an earlier order award, clamped to the
	// current balance; returns nil when there is nothing to take back.
	RevokeOrderPoints(ctx context.Context, userID int64, order *domain.Order) (*domain.LoyaltyTransaction, error)
	AdjustPoints(ctx context.Context, identity domain.Identity, userID, points int64, description string) (*domain.LoyaltyTransaction, error)
	ConvertPointsToDiscount(ctx context.Context, identity domain.Identity, points int64) (*domain.Discount, error)
	// ExpirePoints offsets credits whose expiry has passed; run by the
	// scheduler. Returns the number of credits processed.
	ExpirePoints(ctx context.Context, asOf time.Time) (int, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
}

type EmailService interface {
	SendOrderStatusEmail(ctx context.Context, email, name, itemTitle string, status domain.OrderStatus) error
	SendExtensionDecisionEmail(ctx context.Context, email, name, itemTitle string, approved bool, newEndAt time.Time) error
	SendReturnReminderEmail(ctx context.Context, email, name, itemTitle string, endAt time.Time) error
	SendContractSignedEmail(ctx context.Context, email, name, itemTitle string) error
}
