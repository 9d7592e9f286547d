package service

import (
	"context"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// fakeTxManager runs the transactional closure against the same mocks the
// test wired up, with no real transaction underneath.
type fakeTxManager struct {
	uow *repository.UnitOfWork
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(uow *repository.UnitOfWork) error) error {
	return fn(f.uow)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) UpdatePoints(ctx context.Context, userID, points int64) error {
	args := m.Called(ctx, userID, points)
	return args.Error(0)
}

// MockItemRepo
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) DecrementAvailable(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}
func (m *MockItemRepo) IncrementAvailable(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}
func (m *MockItemRepo) DecrementQuantity(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}
func (m *MockItemRepo) IncrementRentCount(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	order.ID = 100
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
func (m *MockOrderRepo) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}
func (m *MockOrderRepo) SetContractSigned(ctx context.Context, orderID int64, signed bool) error {
	args := m.Called(ctx, orderID, signed)
	return args.Error(0)
}
func (m *MockOrderRepo) ListByRenter(ctx context.Context, renterID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}
func (m *MockOrderRepo) ListByOwner(ctx context.Context, ownerID int64, status domain.OrderStatus, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.Order), args.Get(1).(int32), args.Error(2)
}
func (m *MockOrderRepo) ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.Order), args.Error(1)
}

// MockDiscountRepo
type MockDiscountRepo struct {
	mock.Mock
}

func (m *MockDiscountRepo) Create(ctx context.Context, d *domain.Discount) error {
	args := m.Called(ctx, d)
	d.ID = 200
	return args.Error(0)
}
func (m *MockDiscountRepo) GetByCode(ctx context.Context, code string) (*domain.Discount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}
func (m *MockDiscountRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}
func (m *MockDiscountRepo) IncrementUsage(ctx context.Context, discountID int64) error {
	args := m.Called(ctx, discountID)
	return args.Error(0)
}
func (m *MockDiscountRepo) GetAssignment(ctx context.Context, discountID, userID int64) (*domain.DiscountAssignment, error) {
	args := m.Called(ctx, discountID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscountAssignment), args.Error(1)
}
func (m *MockDiscountRepo) CreateAssignment(ctx context.Context, a *domain.DiscountAssignment) error {
	args := m.Called(ctx, a)
	a.ID = 300
	return args.Error(0)
}
func (m *MockDiscountRepo) IncrementAssignmentUsage(ctx context.Context, assignmentID int64) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}
func (m *MockDiscountRepo) CreateRedemption(ctx context.Context, r *domain.DiscountRedemption) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockDiscountRepo) MarkRedemptionsRefunded(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockExtensionRepo
type MockExtensionRepo struct {
	mock.Mock
}

func (m *MockExtensionRepo) Create(ctx context.Context, req *domain.ExtensionRequest) error {
	args := m.Called(ctx, req)
	req.ID = 400
	return args.Error(0)
}
func (m *MockExtensionRepo) GetByID(ctx context.Context, id int64) (*domain.ExtensionRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtensionRequest), args.Error(1)
}
func (m *MockExtensionRepo) GetPendingByOrder(ctx context.Context, orderID int64) (*domain.ExtensionRequest, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtensionRequest), args.Error(1)
}
func (m *MockExtensionRepo) Update(ctx context.Context, req *domain.ExtensionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockExtensionRepo) ListByOrder(ctx context.Context, orderID int64) ([]domain.ExtensionRequest, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.ExtensionRequest), args.Error(1)
}

// MockContractRepo
type MockContractRepo struct {
	mock.Mock
}

func (m *MockContractRepo) Create(ctx context.Context, c *domain.Contract) error {
	args := m.Called(ctx, c)
	c.ID = 500
	return args.Error(0)
}
func (m *MockContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}
func (m *MockContractRepo) GetByOrder(ctx context.Context, orderID int64) (*domain.Contract, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}
func (m *MockContractRepo) Update(ctx context.Context, c *domain.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockContractRepo) GetTemplate(ctx context.Context, id int64) (*domain.ContractTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContractTemplate), args.Error(1)
}
func (m *MockContractRepo) GetDefaultTemplate(ctx context.Context) (*domain.ContractTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContractTemplate), args.Error(1)
}

// MockSignatureRepo
type MockSignatureRepo struct {
	mock.Mock
}

func (m *MockSignatureRepo) CreateUserSignature(ctx context.Context, s *domain.UserSignature) error {
	args := m.Called(ctx, s)
	s.ID = 600
	return args.Error(0)
}
func (m *MockSignatureRepo) GetActiveUserSignature(ctx context.Context, userID int64) (*domain.UserSignature, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSignature), args.Error(1)
}
func (m *MockSignatureRepo) GetUserSignature(ctx context.Context, id int64) (*domain.UserSignature, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSignature), args.Error(1)
}
func (m *MockSignatureRepo) UpdateUserSignature(ctx context.Context, s *domain.UserSignature) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSignatureRepo) CountValidReferences(ctx context.Context, signatureID int64) (int32, error) {
	args := m.Called(ctx, signatureID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockSignatureRepo) CreateContractSignature(ctx context.Context, cs *domain.ContractSignature) error {
	args := m.Called(ctx, cs)
	cs.ID = 700
	return args.Error(0)
}
func (m *MockSignatureRepo) GetContractSignature(ctx context.Context, contractID, signerID int64) (*domain.ContractSignature, error) {
	args := m.Called(ctx, contractID, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContractSignature), args.Error(1)
}
func (m *MockSignatureRepo) UpdateContractSignaturePosition(ctx context.Context, id int64, x, y float64) error {
	args := m.Called(ctx, id, x, y)
	return args.Error(0)
}
func (m *MockSignatureRepo) ListByContract(ctx context.Context, contractID int64) ([]domain.ContractSignature, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]domain.ContractSignature), args.Error(1)
}
func (m *MockSignatureRepo) CountValidByContract(ctx context.Context, contractID int64) (int32, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int32), args.Error(1)
}

// MockLoyaltyRepo
type MockLoyaltyRepo struct {
	mock.Mock
}

func (m *MockLoyaltyRepo) Append(ctx context.Context, tx *domain.LoyaltyTransaction) error {
	args := m.Called(ctx, tx)
	tx.ID = 800
	return args.Error(0)
}
func (m *MockLoyaltyRepo) List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.LoyaltyTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.LoyaltyTransaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockLoyaltyRepo) HasTypeBetween(ctx context.Context, userID int64, t domain.LoyaltyTransactionType, from, to time.Time) (bool, error) {
	args := m.Called(ctx, userID, t, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *MockLoyaltyRepo) ListExpiredCredits(ctx context.Context, asOf time.Time, limit int32) ([]domain.LoyaltyTransaction, error) {
	args := m.Called(ctx, asOf, limit)
	return args.Get(0).([]domain.LoyaltyTransaction), args.Error(1)
}
func (m *MockLoyaltyRepo) MarkExpiredProcessed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int64, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockAuditLogRepo
type MockAuditLogRepo struct {
	mock.Mock
}

func (m *MockAuditLogRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendOrderStatusEmail(ctx context.Context, email, name, itemTitle string, status domain.OrderStatus) error {
	args := m.Called(ctx, email, name, itemTitle, status)
	return args.Error(0)
}
func (m *MockEmailService) SendExtensionDecisionEmail(ctx context.Context, email, name, itemTitle string, approved bool, newEndAt time.Time) error {
	args := m.Called(ctx, email, name, itemTitle, approved, newEndAt)
	return args.Error(0)
}
func (m *MockEmailService) SendReturnReminderEmail(ctx context.Context, email, name, itemTitle string, endAt time.Time) error {
	args := m.Called(ctx, email, name, itemTitle, endAt)
	return args.Error(0)
}
func (m *MockEmailService) SendContractSignedEmail(ctx context.Context, email, name, itemTitle string) error {
	args := m.Called(ctx, email, name, itemTitle)
	return args.Error(0)
}

// testEnv bundles one full set of mocks plus the fake transaction manager.
type testEnv struct {
	users      *MockUserRepo
	items      *MockItemRepo
	orders     *MockOrderRepo
	discounts  *MockDiscountRepo
	extensions *MockExtensionRepo
	contracts  *MockContractRepo
	signatures *MockSignatureRepo
	loyalty    *MockLoyaltyRepo
	notes      *MockNotificationRepo
	audits     *MockAuditLogRepo
	email      *MockEmailService
	uow        *repository.UnitOfWork
	tx         *fakeTxManager
	disp       *dispatcher
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:      new(MockUserRepo),
		items:      new(MockItemRepo),
		orders:     new(MockOrderRepo),
		discounts:  new(MockDiscountRepo),
		extensions: new(MockExtensionRepo),
		contracts:  new(MockContractRepo),
		signatures: new(MockSignatureRepo),
		loyalty:    new(MockLoyaltyRepo),
		notes:      new(MockNotificationRepo),
		audits:     new(MockAuditLogRepo),
		email:      new(MockEmailService),
	}
	env.uow = &repository.UnitOfWork{
		Users:         env.users,
		Items:         env.items,
		Orders:        env.orders,
		Discounts:     env.discounts,
		Extensions:    env.extensions,
		Contracts:     env.contracts,
		Signatures:    env.signatures,
		Loyalty:       env.loyalty,
		Notifications: env.notes,
		AuditLogs:     env.audits,
	}
	env.tx = &fakeTxManager{uow: env.uow}
	env.disp = newDispatcher(env.users, env.notes, env.email)
	return env
}

// allowSideEffects stubs out everything the post-commit dispatcher may touch,
// for tests that only care about the core transition.
func (env *testEnv) allowSideEffects() {
	env.users.On("GetByID", mock.Anything, mock.Anything).Return(&domain.User{ID: 1, Email: "user@test.com", Name: "User"}, nil).Maybe()
	env.users.On("UpdatePoints", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.loyalty.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.notes.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	env.email.On("SendOrderStatusEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.email.On("SendExtensionDecisionEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	env.email.On("SendContractSignedEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}
