package db_models

import (
	"github.com/google/uuid"
)

type LicenseKeyStatus string

const (
	LicenseKeyStatusAvailable LicenseKeyStatus = "available"
	LicenseKeyStatusSold      LicenseKeyStatus = "sold"
	LicenseKeyStatusRevoked   LicenseKeyStatus = "revoked"
)

// LicenseKey holds one importable key. The plaintext never touches the
// database: Ciphertext is the vault AEAD payload, Fingerprint is the
// sha256 of the plaintext and exists only so bulk import can reject
// duplicates despite non-deterministic encryption.
type LicenseKey struct {
	BaseModel
	ProductID   uuid.UUID        `gorm:"type:uuid;index;index:idx_key_fingerprint,unique;not null"`
	Ciphertext  string           `gorm:"type:text;not null"`
	Fingerprint string           `gorm:"size:64;index:idx_key_fingerprint,unique;not null"`
	Status      LicenseKeyStatus `gorm:"index;default:available"`

	// Back-reference to the claiming order; never embed key lists on Order.
	OrderID *uuid.UUID `gorm:"type:uuid;index"`

	// Unix seconds
	SoldAt       *int64
	RevokedAt    *int64
	RevokeReason string
}

func (LicenseKey) TableName() string {
	return "license_keys"
}
