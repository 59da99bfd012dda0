package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"donation-portal/internal/database"
	"donation-portal/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventInput is the body of an event creation request
type EventInput struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date" validate:"required"`
	EndTime         *time.Time      `json:"endTime" validate:"omitempty,gtefield=Date"`
	Location        string          `json:"location" validate:"required"`
	MaxParticipants *int            `json:"maxParticipants" validate:"omitempty,min=1"`
	RegistrationFee decimal.Decimal `json:"registrationFee" validate:"gte=0,lte=99999999.99"`
	IsActive        *bool           `json:"isActive"`
	ImageURL        string          `json:"imageUrl"`
}

// Validate normalizes the input and checks it
func (in *EventInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)

	return validateStruct(in)
}

// EventUpdate is a partial admin edit; nil fields are left unchanged
type EventUpdate struct {
	Name            *string          `json:"name" validate:"omitempty,min=1"`
	Description     *string          `json:"description"`
	Date            *time.Time       `json:"date"`
	EndTime         *time.Time       `json:"endTime"`
	Location        *string          `json:"location" validate:"omitempty,min=1"`
	MaxParticipants *int             `json:"maxParticipants" validate:"omitempty,min=1"`
	RegistrationFee *decimal.Decimal `json:"registrationFee" validate:"omitempty,gte=0,lte=99999999.99"`
	IsActive        *bool            `json:"isActive"`
	ImageURL        *string          `json:"imageUrl"`
}

func (u *EventUpdate) columns() (map[string]interface{}, error) {
	if u.Name != nil {
		*u.Name = strings.TrimSpace(*u.Name)
	}
	if u.Location != nil {
		*u.Location = strings.TrimSpace(*u.Location)
	}
	if err := validateStruct(u); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Date != nil {
		updates["date"] = *u.Date
	}
	if u.EndTime != nil {
		updates["end_time"] = *u.EndTime
	}
	if u.Location != nil {
		updates["location"] = *u.Location
	}
	if u.MaxParticipants != nil {
		updates["max_participants"] = *u.MaxParticipants
	}
	if u.RegistrationFee != nil {
		updates["registration_fee"] = u.RegistrationFee.Round(2)
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.ImageURL != nil {
		updates["image_url"] = *u.ImageURL
	}
	if len(updates) == 0 {
		return nil, invalid("", "no fields to update")
	}
	return updates, nil
}

// EventDetail is an event with its registration count
type EventDetail struct {
	models.Event
	RegistrationCount int64 `json:"registrationCount"`
}

// EventService manages events
type EventService struct {
	store *database.Store
}

// NewEventService creates an event service
func NewEventService(store *database.Store) *EventService {
	return &EventService{store: store}
}

// ListActiveEvents lists events open for registration, soonest first
func (s *EventService) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx, true)
}

// ListAllEvents lists every event, newest first
func (s *EventService) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx, false)
}

// GetEvent gets an event with the number of registrations made for it
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*EventDetail, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountEventRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EventDetail{Event: *event, RegistrationCount: count}, nil
}

// CreateEvent creates an event
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (*models.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	event := &models.Event{
		Name:            input.Name,
		Description:     optional(strings.TrimSpace(input.Description)),
		Date:            input.Date,
		EndTime:         input.EndTime,
		Location:        input.Location,
		MaxParticipants: input.MaxParticipants,
		RegistrationFee: input.RegistrationFee.Round(2),
		IsActive:        input.IsActive == nil || *input.IsActive,
		ImageURL:        optional(strings.TrimSpace(input.ImageURL)),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEvent applies a partial edit and returns the updated event
func (s *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, update EventUpdate) (*models.Event, error) {
	updates, err := update.columns()
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateEvent(ctx, id, updates); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return s.getEvent(ctx, id)
}

// ListRegistrations lists the registrations of an event
func (s *EventService) ListRegistrations(ctx context.Context, id uuid.UUID) ([]models.EventRegistration, error) {
	if _, err := s.getEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEventRegistrations(ctx, id)
}

func (s *EventService) getEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return event, nil
}
