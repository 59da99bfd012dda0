package services

import (
	"context"
	"errors"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/models"
	"donation-portal/pkg/logging"

	"github.com/shopspring/decimal"
)

// SeedDefaults creates the default admin account and sample events when they are missing
func SeedDefaults(ctx context.Context, store *database.Store, cfg *config.Config, now time.Time) error {
	if err := seedAdmin(ctx, store, cfg); err != nil {
		return err
	}
	return seedEvents(ctx, store, now)
}

func seedAdmin(ctx context.Context, store *database.Store, cfg *config.Config) error {
	_, err := store.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username: cfg.AdminUsername,
		Password: hash,
		Email:    cfg.AdminEmail,
		Role:     models.RoleAdmin,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return err
	}

	logging.Infof("Default admin user created: %s", cfg.AdminUsername)
	if cfg.AdminPassword == "admin123" {
		logging.Warnf("Default admin password is in use, change it with `manage reset-password`")
	}
	return nil
}

func seedEvents(ctx context.Context, store *database.Store, now time.Time) error {
	existing, err := store.ListEvents(ctx, true)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	samples := []struct {
		name, description, location string
		offsetDays                  int
		startHour, endHour          int
		maxParticipants             int
		fee                         int64
	}{
		{
			name:            "Family Counseling Workshop",
			description:     "Learn effective communication skills for stronger family relationships",
			location:        "Family Peace Foundation Center, Nairobi",
			offsetDays:      30,
			startHour:       10,
			endHour:         16,
			maxParticipants: 50,
			fee:             2500,
		},
		{
			name:            "Youth Empowerment Summit",
			description:     "Empowering young people with life skills and career guidance",
			location:        "Kenyatta International Conference Centre",
			offsetDays:      60,
			startHour:       9,
			endHour:         17,
			maxParticipants: 100,
			fee:             1500,
		},
	}

	for _, sample := range samples {
		date := day.AddDate(0, 0, sample.offsetDays)
		end := date.Add(time.Duration(sample.endHour) * time.Hour)
		description := sample.description
		maxParticipants := sample.maxParticipants

		event := &models.Event{
			Name:            sample.name,
			Description:     &description,
			Date:            date.Add(time.Duration(sample.startHour) * time.Hour),
			EndTime:         &end,
			Location:        sample.location,
			MaxParticipants: &maxParticipants,
			RegistrationFee: decimal.NewFromInt(sample.fee),
			IsActive:        true,
		}
		if err := store.CreateEvent(ctx, event); err != nil {
			return err
		}
	}

	logging.Infof("Sample events created successfully")
	return nil
}
