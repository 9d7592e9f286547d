package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"
	"renthub-backend/internal/repository"
	"renthub-backend/internal/security"
	"renthub-backend/internal/storage"
	"renthub-backend/internal/utils"
)

const (
	clauseDelimiter = "\n\n--- Additional clause ---\n"

	// Default overlay positions, in percent of the rendered page.
	ownerSignatureX   = 18.0
	renterSignatureX  = 62.0
	signatureOverlayY = 78.0

	signatureAssetCategory = "signatures"
)

// templateToken matches any {{placeholder}} left after the known keys are
// filled in; leftovers are blanked rather than leaking into the document.
var templateToken = regexp.MustCompile(`\{\{\w+\}\}`)

type contractService struct {
	repos  *repository.UnitOfWork
	tx     repository.TxManager
	disp   *dispatcher
	cipher *security.Cipher
	assets storage.AssetStore
}

func NewContractService(tx repository.TxManager, repos *repository.UnitOfWork, disp *dispatcher, cipher *security.Cipher, assets storage.AssetStore) ContractService {
	return &contractService{repos: repos, tx: tx, disp: disp, cipher: cipher, assets: assets}
}

func (s *contractService) CreateContract(ctx context.Context, identity domain.Identity, orderID, templateID int64) (*domain.Contract, error) {
	var contract *domain.Contract
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		order, err := uow.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsParty(identity.UserID) {
			return domain.Unauthorizedf("only a party to the order can create its contract")
		}
		switch order.Status {
		case domain.OrderStatusConfirmed, domain.OrderStatusProgress:
		default:
			return domain.Conflictf(domain.CodeStateConflict, "order %d is %s, contracts require CONFIRMED or PROGRESS", order.ID, order.Status)
		}

		if _, err := uow.Contracts.GetByOrder(ctx, orderID); err == nil {
			return domain.Conflictf(domain.CodeContractExists, "order %d already has a contract", orderID)
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}

		var template *domain.ContractTemplate
		if templateID != 0 {
			template, err = uow.Contracts.GetTemplate(ctx, templateID)
		} else {
			template, err = uow.Contracts.GetDefaultTemplate(ctx)
		}
		if err != nil {
			return err
		}

		content, err := s.renderTemplate(ctx, uow, template, order)
		if err != nil {
			return err
		}

		contract = &domain.Contract{
			OrderID:    orderID,
			TemplateID: template.ID,
			Content:    content,
			Status:     domain.ContractStatusPendingSignature,
		}
		return uow.Contracts.Create(ctx, contract)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("contract created", "contract_id", contract.ID, "order_id", orderID)
	return contract, nil
}

// renderTemplate fills the {{placeholder}} tokens with order and party data.
// Identity numbers are decrypted here, flow straight into the rendered text
// and are never stored in plaintext anywhere else.
func (s *contractService) renderTemplate(ctx context.Context, uow *repository.UnitOfWork, template *domain.ContractTemplate, order *domain.Order) (string, error) {
	owner, err := uow.Users.GetByID(ctx, order.OwnerID)
	if err != nil {
		return "", err
	}
	renter, err := uow.Users.GetByID(ctx, order.RenterID)
	if err != nil {
		return "", err
	}
	ownerIdentity, err := s.decryptIdentityNumber(owner)
	if err != nil {
		return "", err
	}
	renterIdentity, err := s.decryptIdentityNumber(renter)
	if err != nil {
		return "", err
	}

	values := map[string]string{
		"order_id":               fmt.Sprintf("%d", order.ID),
		"owner_name":             owner.Name,
		"owner_phone":            owner.PhoneNumber,
		"owner_identity_number":  ownerIdentity,
		"renter_name":            renter.Name,
		"renter_phone":           renter.PhoneNumber,
		"renter_identity_number": renterIdentity,
		"item_title":             order.SnapshotTitle,
		"quantity":               fmt.Sprintf("%d", order.Quantity),
		"price_unit":             utils.UnitLabel(order.PriceUnit),
		"rental_duration":        fmt.Sprintf("%d", order.RentalDuration),
		"start_at":               order.StartAt.Format("January 2, 2006 15:04"),
		"end_at":                 order.EndAt.Format("January 2, 2006 15:04"),
		"rental_amount":          fmt.Sprintf("%d", order.RentalAmount),
		"service_fee":            fmt.Sprintf("%d", order.ServiceFee),
		"deposit_amount":         fmt.Sprintf("%d", order.DepositAmount),
		"discount_amount":        fmt.Sprintf("%d", order.TotalDiscount()),
		"total_amount":           fmt.Sprintf("%d", order.TotalAmount),
		"final_amount":           fmt.Sprintf("%d", order.FinalAmount),
		"signing_date":           time.Now().Format("January 2, 2006"),
	}

	content := template.Header + "\n\n" + template.Body + "\n\n" + template.Footer
	for key, value := range values {
		content = strings.ReplaceAll(content, "{{"+key+"}}", value)
	}
	content = templateToken.ReplaceAllString(content, "")
	return content, nil
}

func (s *contractService) decryptIdentityNumber(user *domain.User) (string, error) {
	if len(user.IdentityNumberCipher) == 0 {
		return "", nil
	}
	plain, err := s.cipher.Decrypt(user.IdentityNumberCipher, user.IdentityNumberIV)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt identity number for user %d: %w", user.ID, err)
	}
	return string(plain), nil
}

func (s *contractService) GetContract(ctx context.Context, identity domain.Identity, contractID int64) (*ContractView, error) {
	contract, err := s.repos.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, identity, contract)
}

func (s *contractService) GetContractForOrder(ctx context.Context, identity domain.Identity, orderID int64) (*ContractView, error) {
	contract, err := s.repos.Contracts.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, identity, contract)
}

func (s *contractService) buildView(ctx context.Context, identity domain.Identity, contract *domain.Contract) (*ContractView, error) {
	order, err := s.repos.Orders.GetByID(ctx, contract.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(identity.UserID) && identity.Role != domain.UserRoleAdmin {
		return nil, domain.Unauthorizedf("not a party to the contract's order")
	}

	signatures, err := s.repos.Signatures.ListByContract(ctx, contract.ID)
	if err != nil {
		return nil, err
	}
	overlays := make([]domain.SignatureOverlay, 0, len(signatures))
	for _, cs := range signatures {
		if !cs.IsValid {
			continue
		}
		us, err := s.repos.Signatures.GetUserSignature(ctx, cs.SignatureID)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, domain.SignatureOverlay{
			ImageURL:  us.RenderURL,
			PositionX: cs.PositionX,
			PositionY: cs.PositionY,
		})
	}
	return &ContractView{Contract: contract, Signatures: signatures, Overlays: overlays}, nil
}

func (s *contractService) AppendClause(ctx context.Context, identity domain.Identity, contractID int64, clause string) (*domain.Contract, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil, domain.Validationf(domain.CodeInvalidInput, "clause text is required")
	}

	var contract *domain.Contract
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		contract, err = uow.Contracts.GetByID(ctx, contractID)
		if err != nil {
			return err
		}
		order, err := uow.Orders.GetByID(ctx, contract.OrderID)
		if err != nil {
			return err
		}
		if !order.IsParty(identity.UserID) {
			return domain.Unauthorizedf("only a party to the order can amend the contract")
		}
		if contract.Status == domain.ContractStatusSigned {
			return domain.Conflictf(domain.CodeStateConflict, "contract %d is already signed", contractID)
		}

		contract.Content += clauseDelimiter + clause
		return uow.Contracts.Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *contractService) UploadSignature(ctx context.Context, identity domain.Identity, image []byte) (*domain.UserSignature, error) {
	if len(image) == 0 {
		return nil, domain.Validationf(domain.CodeInvalidInput, "signature image is required")
	}

	iv, encrypted, err := s.cipher.Encrypt(image)
	if err != nil {
		return nil, err
	}
	renderURL, err := s.assets.Upload(ctx, signatureAssetCategory, image)
	if err != nil {
		return nil, err
	}

	var (
		signature   *domain.UserSignature
		obsoleteURL string
	)
	err = s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		existing, err := uow.Signatures.GetActiveUserSignature(ctx, identity.UserID)
		switch {
		case domain.KindOf(err) == domain.KindNotFound:
			existing = nil
		case err != nil:
			return err
		}

		now := time.Now()
		if existing != nil {
			refs, err := uow.Signatures.CountValidReferences(ctx, existing.ID)
			if err != nil {
				return err
			}
			if refs == 0 {
				// Unreferenced: replace in place, the old image has no legal
				// significance.
				obsoleteURL = existing.RenderURL
				existing.ImageCipher = encrypted
				existing.ImageIV = iv
				existing.RenderURL = renderURL
				existing.ValidFrom = now
				if err := uow.Signatures.UpdateUserSignature(ctx, existing); err != nil {
					return err
				}
				signature = existing
				return auditSignature(ctx, uow, identity.UserID, existing.ID, domain.AuditOperationUpdate, "signature image replaced")
			}

			// Referenced by a signed contract: freeze the old record so its
			// image stays verifiable, then start a new one.
			existing.IsActive = false
			existing.ValidUntil = &now
			if err := uow.Signatures.UpdateUserSignature(ctx, existing); err != nil {
				return err
			}
			if err := auditSignature(ctx, uow, identity.UserID, existing.ID, domain.AuditOperationUpdate, "signature frozen, superseded by new upload"); err != nil {
				return err
			}
		}

		signature = &domain.UserSignature{
			UserID:      identity.UserID,
			ImageCipher: encrypted,
			ImageIV:     iv,
			RenderURL:   renderURL,
			IsActive:    true,
			ValidFrom:   now,
		}
		if err := uow.Signatures.CreateUserSignature(ctx, signature); err != nil {
			return err
		}
		return auditSignature(ctx, uow, identity.UserID, signature.ID, domain.AuditOperationCreate, "signature uploaded")
	})
	if err != nil {
		// The uploaded asset is orphaned; best-effort cleanup.
		if derr := s.assets.Destroy(ctx, renderURL); derr != nil {
			logger.Warn("failed to clean up orphaned signature asset", "url", renderURL, "error", derr)
		}
		return nil, err
	}

	if obsoleteURL != "" {
		s.disp.run("destroy_old_signature_asset", func(ctx context.Context) error {
			return s.assets.Destroy(ctx, obsoleteURL)
		})
	}
	logger.Info("signature uploaded", "user_id", identity.UserID, "signature_id", signature.ID)
	return signature, nil
}

func (s *contractService) SignContract(ctx context.Context, identity domain.Identity, contractID int64, posX, posY float64) (*domain.Contract, error) {
	var (
		contract  *domain.Contract
		order     *domain.Order
		nowSigned bool
	)
	err := s.tx.RunInTx(ctx, func(uow *repository.UnitOfWork) error {
		var err error
		contract, err = uow.Contracts.GetByID(ctx, contractID)
		if err != nil {
			return err
		}
		order, err = uow.Orders.GetByID(ctx, contract.OrderID)
		if err != nil {
			return err
		}
		if !order.IsParty(identity.UserID) {
			return domain.Unauthorizedf("only a party to the order can sign the contract")
		}
		if contract.Status == domain.ContractStatusSigned {
			return domain.Conflictf(domain.CodeStateConflict, "contract %d is already signed", contractID)
		}

		active, err := uow.Signatures.GetActiveUserSignature(ctx, identity.UserID)
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.Validationf(domain.CodeInvalidInput, "upload a signature image before signing")
		}
		if err != nil {
			return err
		}

		if posX == 0 && posY == 0 {
			posX = renterSignatureX
			if identity.UserID == order.OwnerID {
				posX = ownerSignatureX
			}
			posY = signatureOverlayY
		}

		existing, err := uow.Signatures.GetContractSignature(ctx, contractID, identity.UserID)
		switch {
		case err == nil:
			// Re-signing only moves the overlay.
			if err := uow.Signatures.UpdateContractSignaturePosition(ctx, existing.ID, posX, posY); err != nil {
				return err
			}
			if err := auditSignature(ctx, uow, identity.UserID, existing.ID, domain.AuditOperationUpdate, "contract signature repositioned"); err != nil {
				return err
			}
		case domain.KindOf(err) == domain.KindNotFound:
			cs := &domain.ContractSignature{
				ContractID:  contractID,
				SignerID:    identity.UserID,
				SignatureID: active.ID,
				SignedAt:    time.Now(),
				IsValid:     true,
				PositionX:   posX,
				PositionY:   posY,
			}
			if err := uow.Signatures.CreateContractSignature(ctx, cs); err != nil {
				return err
			}
			if err := auditSignature(ctx, uow, identity.UserID, cs.ID, domain.AuditOperationCreate, "contract signed"); err != nil {
				return err
			}
		default:
			return err
		}

		valid, err := uow.Signatures.CountValidByContract(ctx, contractID)
		if err != nil {
			return err
		}
		if valid >= 2 {
			now := time.Now()
			contract.Status = domain.ContractStatusSigned
			contract.SignedAt = &now
			if err := uow.Contracts.Update(ctx, contract); err != nil {
				return err
			}
			if err := uow.Orders.SetContractSigned(ctx, order.ID, true); err != nil {
				return err
			}
			nowSigned = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("contract signature recorded", "contract_id", contractID, "signer_id", identity.UserID, "fully_signed", nowSigned)
	if nowSigned {
		s.disp.contractSigned(order, contract)
	}
	return contract, nil
}

func auditSignature(ctx context.Context, uow *repository.UnitOfWork, actorID, recordID int64, op domain.AuditOperation, summary string) error {
	return uow.AuditLogs.Create(ctx, &domain.AuditLog{
		TableName: "signatures",
		RecordID:  recordID,
		Operation: op,
		ActorID:   actorID,
		Summary:   summary,
	})
}
