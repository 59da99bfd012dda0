package services

import (
	"context"
	"testing"
	"time"

	"donation-portal/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	store := testutil.NewTestStore(t)
	service := NewEventService(store)
	ctx := context.Background()

	event, err := service.CreateEvent(ctx, EventInput{
		Name:            "Parenting Seminar",
		Date:            time.Now().Add(48 * time.Hour),
		Location:        "Nairobi",
		MaxParticipants: testutil.IntPtr(20),
		RegistrationFee: decimal.RequireFromString("1000.50"),
	})
	require.NoError(t, err)
	assert.True(t, event.IsActive)

	detail, err := service.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Parenting Seminar", detail.Name)
	assert.EqualValues(t, 0, detail.RegistrationCount)
	assert.Equal(t, "1000.5", detail.RegistrationFee.String())
}

func TestCreateEvent_Validation(t *testing.T) {
	service := NewEventService(testutil.NewTestStore(t))
	date := time.Now().Add(24 * time.Hour)
	before := date.Add(-time.Hour)

	tests := []struct {
		name  string
		input EventInput
	}{
		{"missing name", EventInput{Date: date, Location: "x"}},
		{"missing date", EventInput{Name: "x", Location: "x"}},
		{"missing location", EventInput{Name: "x", Date: date}},
		{"end before start", EventInput{Name: "x", Date: date, EndTime: &before, Location: "x"}},
		{"zero capacity", EventInput{Name: "x", Date: date, Location: "x", MaxParticipants: testutil.IntPtr(0)}},
		{"negative fee", EventInput{Name: "x", Date: date, Location: "x", RegistrationFee: decimal.NewFromInt(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateEvent(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateEvent(t *testing.T) {
	store := testutil.NewTestStore(t)
	service := NewEventService(store)
	ctx := context.Background()
	event := testutil.CreateEvent(t, store, 2500, testutil.IntPtr(50))

	fee := decimal.NewFromInt(3000)
	inactive := false
	updated, err := service.UpdateEvent(ctx, event.ID, EventUpdate{RegistrationFee: &fee, IsActive: &inactive})
	require.NoError(t, err)
	assert.True(t, fee.Equal(updated.RegistrationFee))
	assert.False(t, updated.IsActive)

	active, err := service.ListActiveEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := service.ListAllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = service.UpdateEvent(ctx, event.ID, EventUpdate{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.UpdateEvent(ctx, uuid.New(), EventUpdate{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRegistrations_UnknownEvent(t *testing.T) {
	service := NewEventService(testutil.NewTestStore(t))

	_, err := service.ListRegistrations(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.GetEvent(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
