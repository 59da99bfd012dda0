package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donation-portal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetCachedToken returns the cached gateway token row, or nil when none was stored
func (s *Store) GetCachedToken(ctx context.Context) (*models.PesapalToken, error) {
	var token models.PesapalToken
	err := s.db.WithContext(ctx).
		Where("cache_key = ?", models.AccessTokenCacheKey).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cached token: %w", err)
	}
	return &token, nil
}

// SaveCachedToken replaces the cached gateway token
func (s *Store) SaveCachedToken(ctx context.Context, token string, expiresAt time.Time) (*models.PesapalToken, error) {
	row := &models.PesapalToken{
		CacheKey:  models.AccessTokenCacheKey,
		Token:     token,
		ExpiresAt: expiresAt,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}
	return row, nil
}

// GetIPNURL returns the registration for url, or nil when it was never registered
func (s *Store) GetIPNURL(ctx context.Context, url string) (*models.PesapalIPNURL, error) {
	var ipn models.PesapalIPNURL
	err := s.db.WithContext(ctx).Where("url = ?", url).First(&ipn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load IPN URL: %w", err)
	}
	return &ipn, nil
}

// SaveIPNURL records the gateway's IPN id for url
func (s *Store) SaveIPNURL(ctx context.Context, url, ipnID string) (*models.PesapalIPNURL, error) {
	row := &models.PesapalIPNURL{
		URL:      url,
		IPNID:    ipnID,
		IsActive: true,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"ipn_id", "is_active"}),
	}).Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save IPN URL: %w", err)
	}
	return row, nil
}
