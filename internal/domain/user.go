package domain

import "time"

type UserRole string

const (
	UserRoleMember    UserRole = "MEMBER"
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleModerator UserRole = "MODERATOR"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBanned  UserStatus = "BANNED"
	UserStatusDeleted UserStatus = "DELETED"
)

type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatar_url"`
	Role        UserRole   `json:"role"`
	Status      UserStatus `json:"status"`
	// Points mirrors the balance of the most recent loyalty transaction.
	Points int64 `json:"points"`
	// National identity number, encrypted at rest. Decrypted on demand for
	// contract rendering, never cached in plaintext.
	IdentityNumberCipher []byte     `json:"-"`
	IdentityNumberIV     []byte     `json:"-"`
	CreatedOn            time.Time  `json:"created_on"`
	UpdatedOn            time.Time  `json:"updated_on"`
	DeletedOn            *time.Time `json:"deleted_on,omitempty"`
}

// Identity is the authenticated caller handed to every core operation by the
// session layer. The core trusts it and enforces its own authorization.
type Identity struct {
	UserID int64    `json:"user_id"`
	Role   UserRole `json:"role"`
}
