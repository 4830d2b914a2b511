package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// apiKeyBytes is the entropy of a generated key; keys are hex encoded.
const apiKeyBytes = 32

type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id"`
	User       User       `json:"user"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// NewAPIKey issues a random key for the user. It is not stored.
func NewAPIKey(userID uint, name string, expiresAt *time.Time) (APIKey, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return APIKey{}, fmt.Errorf("generate api key: %w", err)
	}
	return APIKey{
		UserID:    userID,
		Key:       hex.EncodeToString(b),
		Name:      name,
		ExpiresAt: expiresAt,
	}, nil
}

func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// MaskedKey keeps only the last four characters of the key.
func (k APIKey) MaskedKey() string {
	if len(k.Key) > 4 {
		return "..." + k.Key[len(k.Key)-4:]
	}
	return k.Key
}
