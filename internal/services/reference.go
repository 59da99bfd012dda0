package services

import (
	"crypto/rand"
	"fmt"
)

const (
	DonationReferencePrefix = "DON-"
	EventReferencePrefix    = "EVT-"

	referenceLength   = 10
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// NewMerchantReference returns prefix followed by 10 random URL-safe characters
func NewMerchantReference(prefix string) (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate merchant reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[b&63]
	}
	return prefix + string(buf), nil
}
