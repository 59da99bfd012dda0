package models

import "time"

// AccessTokenCacheKey identifies the single cached gateway bearer token
const AccessTokenCacheKey = "access_token"

// PesapalToken caches the gateway bearer token, one row per cache key
type PesapalToken struct {
	CacheKey  string    `json:"cacheKey" gorm:"primaryKey;size:64"`
	Token     string    `json:"-" gorm:"type:text;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (PesapalToken) TableName() string {
	return "pesapal_tokens"
}

// IsValid reports whether the token can still be used at now
func (t *PesapalToken) IsValid(now time.Time) bool {
	return t != nil && t.Token != "" && now.Before(t.ExpiresAt)
}

// PesapalIPNURL maps a registered notification URL to the gateway's IPN id, one row per URL
type PesapalIPNURL struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"size:500;not null;uniqueIndex"`
	IPNID     string    `json:"ipnId" gorm:"column:ipn_id;size:100;not null;uniqueIndex"`
	IsActive  bool      `json:"isActive" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (PesapalIPNURL) TableName() string {
	return "pesapal_ipn_urls"
}

// IsValid reports whether the registration can be used for order submission
func (u *PesapalIPNURL) IsValid() bool {
	return u != nil && u.IsActive && u.IPNID != ""
}
