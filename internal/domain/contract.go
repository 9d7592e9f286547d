package domain

import "time"

type ContractStatus string

const (
	ContractStatusPendingSignature ContractStatus = "PENDING_SIGNATURE"
	ContractStatusSigned           ContractStatus = "SIGNED"
)

// ContractTemplate holds reusable header/body/footer text with {{placeholder}}
// tokens. Immutable once referenced by a contract except through explicit edit.
type ContractTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Header    string    `json:"header"`
	Body      string    `json:"body"`
	Footer    string    `json:"footer"`
	IsDefault bool      `json:"is_default"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Contract is the rendered legal document bound 1:1 to an order. It becomes
// SIGNED exactly when two valid contract signatures exist, and never regresses.
type Contract struct {
	ID         int64          `json:"id"`
	OrderID    int64          `json:"order_id"`
	TemplateID int64          `json:"template_id"`
	Content    string         `json:"content"`
	Status     ContractStatus `json:"status"`
	SignedAt   *time.Time     `json:"signed_at,omitempty"`
	CreatedOn  time.Time      `json:"created_on"`
	UpdatedOn  time.Time      `json:"updated_on"`
}

// UserSignature is a user's current signature image: encrypted payload plus
// the IV used for that encryption, and a plaintext rendering URL. At most one
// active signature per user. Once referenced by a valid contract signature it
// is frozen; replacement creates a new record.
type UserSignature struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	ImageCipher []byte     `json:"-"`
	ImageIV     []byte     `json:"-"`
	RenderURL   string     `json:"render_url"`
	IsActive    bool       `json:"is_active"`
	ValidFrom   time.Time  `json:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	CreatedOn   time.Time  `json:"created_on"`
	UpdatedOn   time.Time  `json:"updated_on"`
}

// ContractSignature joins a contract to a user signature. One per
// (contract, signer); re-signing updates the overlay position only.
type ContractSignature struct {
	ID          int64     `json:"id"`
	ContractID  int64     `json:"contract_id"`
	SignerID    int64     `json:"signer_id"`
	SignatureID int64     `json:"signature_id"`
	SignedAt    time.Time `json:"signed_at"`
	IsValid     bool      `json:"is_valid"`
	// Overlay position on the rendered document, in percent.
	PositionX        float64 `json:"position_x"`
	PositionY        float64 `json:"position_y"`
	VerificationNote string  `json:"verification_note,omitempty"`
}

// SignatureOverlay is what the external document renderer consumes.
type SignatureOverlay struct {
	ImageURL  string  `json:"image_url"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
}
