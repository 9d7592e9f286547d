package service

import (
	"renthub-backend/internal/config"
	"renthub-backend/internal/repository"
	"renthub-backend/internal/security"
	"renthub-backend/internal/storage"
)

// Registry holds one instance of every service, wired against a shared
// transaction manager and side-effect dispatcher.
type Registry struct {
	Orders        OrderService
	Discounts     DiscountService
	Extensions    ExtensionService
	Contracts     ContractService
	Loyalty       LoyaltyService
	Notifications NotificationService
	Email         EmailService
}

// NewRegistry builds the full service graph.
func NewRegistry(tx repository.TxManager, repos *repository.UnitOfWork, cfg *config.Config, cipher *security.Cipher, assets storage.AssetStore) *Registry {
	emailSvc := NewEmailService(cfg.Email)
	disp := newDispatcher(repos.Users, repos.Notifications, emailSvc)
	rate := func() float64 { return cfg.Pricing.ServiceFeeRate }

	loyaltySvc := NewLoyaltyService(tx, repos, cfg.Loyalty)
	return &Registry{
		Orders:        NewOrderService(tx, repos, disp, rate, loyaltySvc),
		Discounts:     NewDiscountService(tx, repos),
		Extensions:    NewExtensionService(tx, repos, disp),
		Contracts:     NewContractService(tx, repos, disp, cipher, assets),
		Loyalty:       loyaltySvc,
		Notifications: NewNotificationService(repos.Notifications),
		Email:         emailSvc,
	}
}
