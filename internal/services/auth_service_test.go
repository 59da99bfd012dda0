package services

import (
	"context"
	"testing"
	"time"

	"donation-portal/internal/config"
	"donation-portal/internal/models"
	"donation-portal/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *config.Config) {
	t.Helper()

	store := testutil.NewTestStore(t)
	cfg := &config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		AdminUsername: "admin",
		AdminPassword: "admin123",
		AdminEmail:    "admin@familypeace.org",
	}
	require.NoError(t, SeedDefaults(context.Background(), store, cfg, time.Now()))
	return NewAuthService(store, cfg), cfg
}

func TestLogin(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	user, err := auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Login(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionRoundTrip(t *testing.T) {
	auth, _ := newAuthFixture(t)

	token, issued, err := auth.IssueSession(&models.User{ID: 7, Role: models.RoleAdmin})
	require.NoError(t, err)

	session, err := auth.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), session.UserID)
	assert.True(t, session.IsAdmin())
	assert.WithinDuration(t, issued.ExpiresAt, session.ExpiresAt, time.Second)
}

func TestParseSession_Rejects(t *testing.T) {
	auth, cfg := newAuthFixture(t)

	token, _, err := auth.IssueSession(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	t.Run("tampered", func(t *testing.T) {
		_, err := auth.ParseSession(token + "x")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("other secret", func(t *testing.T) {
		other := *cfg
		other.SessionSecret = "another-secret"
		_, err := NewAuthService(nil, &other).ParseSession(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { auth.now = time.Now }()
		_, err := auth.ParseSession(token)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ParseSession("not-a-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestResetPassword(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, auth.ResetPassword(ctx, "admin", "s3cret-pass"))

	_, err := auth.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.Login(ctx, "admin", "s3cret-pass")
	assert.NoError(t, err)

	assert.ErrorIs(t, auth.ResetPassword(ctx, "admin", "123"), ErrValidation)
	assert.ErrorIs(t, auth.ResetPassword(ctx, "ghost", "long-enough"), ErrNotFound)
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	store := testutil.NewTestStore(t)
	cfg := &config.Config{AdminUsername: "admin", AdminPassword: "admin123", AdminEmail: "admin@familypeace.org"}
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, SeedDefaults(ctx, store, cfg, now))
	require.NoError(t, SeedDefaults(ctx, store, cfg, now))

	var users int64
	require.NoError(t, store.DB().Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)

	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")))

	events, err := store.ListEvents(ctx, true)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Family Counseling Workshop", events[0].Name)
	assert.True(t, events[0].Date.After(now))
	assert.Equal(t, 50, *events[0].MaxParticipants)
}
