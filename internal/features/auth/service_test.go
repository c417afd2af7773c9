package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/jwt"
	"github.com/xyz-asif/oipet/internal/pkg/password"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time            { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc     *Service
	store   *MemoryStore
	revoked *MemoryRevocationStore
	tokens  *jwt.Manager
	clock   *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	tokens, err := jwt.NewManager(jwt.DefaultConfig("test-access-secret", "test-refresh-secret"), clk.Now)
	require.NoError(t, err)

	store := NewMemoryStore()
	revoked := NewMemoryRevocationStore(clk.Now)
	svc := NewService(Options{
		Users:        store,
		Tokens:       tokens,
		Hasher:       password.NewHasher(4),
		Revocations:  revoked,
		IsAdminEmail: func(email string) bool { return email == "boss@oipet.com" },
		Now:          clk.Now,
	})
	return &fixture{svc: svc, store: store, revoked: revoked, tokens: tokens, clock: clk}
}

func (f *fixture) register(t *testing.T, email, pass string) *AuthResponse {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterRequest{Name: "A", Email: email, Password: pass})
	require.NoError(t, err)
	return res
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "A@X.com ", "Abc123")
	require.Equal(t, "a@x.com", res.User.Email)
	require.True(t, res.User.IsActive)
	require.False(t, res.User.IsAdmin)
	require.NotEmpty(t, res.Tokens.AccessToken)
	require.NotEmpty(t, res.Tokens.RefreshToken)
	require.Len(t, res.VerificationToken, 64)
	require.NotEqual(t, "Abc123", res.User.PasswordHash)

	login, err := f.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Abc123"})
	require.NoError(t, err)
	require.Equal(t, res.User.ID, login.User.ID)
	require.NotNil(t, login.User.LastLoginAt)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@x.com", "Abc123")

	_, err := f.svc.Register(context.Background(), RegisterRequest{Name: "B", Email: "A@x.COM", Password: "Abc123"})
	require.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestRegisterReportsEveryViolation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterRequest{Name: " ", Email: "nope", Password: "abc", Phone: "12"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindValidation, appErr.Kind)
	require.Contains(t, appErr.Details, "name is required")
	require.Contains(t, appErr.Details, "email is invalid")
	require.Contains(t, appErr.Details, "phone number is invalid")
	require.Len(t, appErr.Details, 6)
}

func TestRegisterAdminEmail(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "boss@oipet.com", "Abc123")
	require.True(t, res.User.IsAdmin)

	p, err := f.svc.Authenticate(context.Background(), res.Tokens.AccessToken)
	require.NoError(t, err)
	require.True(t, p.IsAdmin)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	_, wrongPass := f.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "wrong"})
	_, noUser := f.svc.Login(ctx, LoginRequest{Email: "ghost@x.com", Password: "Abc123"})
	require.Equal(t, wrongPass, noUser)
	require.ErrorIs(t, wrongPass, apperrors.ErrInvalidCredentials)

	_, err := f.store.Update(ctx, res.User.ID, UserPatch{IsActive: Bool(false)})
	require.NoError(t, err)
	_, inactive := f.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Abc123"})
	require.Equal(t, wrongPass, inactive)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	out, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	claims, err := f.tokens.VerifyAccessToken(out.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID.Hex(), claims.UserID)
	require.Equal(t, int64(3600), out.ExpiresIn)

	_, err = f.svc.Refresh(ctx, res.Tokens.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefreshUnknownUser(t *testing.T) {
	f := newFixture(t)
	refresh, err := f.tokens.IssueRefreshToken(jwt.Identity{UserID: primitive.NewObjectID().Hex(), Email: "x@x.com"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), refresh)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	require.NoError(t, f.svc.Logout(ctx, res.User.ID, res.Tokens.RefreshToken))

	_, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestLogoutIgnoresForeignRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@x.com", "Abc123")
	bob := f.register(t, "bob@x.com", "Abc123")

	require.NoError(t, f.svc.Logout(ctx, alice.User.ID, bob.Tokens.RefreshToken))

	_, err := f.svc.Refresh(ctx, bob.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "Abc123")

	token, err := f.svc.GeneratePasswordResetToken(ctx, "A@X.com")
	require.NoError(t, err)
	require.Len(t, token, 64)

	stored, _ := f.store.FindByEmail(ctx, "a@x.com")
	require.NotEqual(t, token, stored.PasswordResetToken)

	require.NoError(t, f.svc.ResetPassword(ctx, token, "NewPass1"))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "NewPass1"})
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, token, "Another1")
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com", "Abc123")

	token, err := f.svc.GeneratePasswordResetToken(ctx, "a@x.com")
	require.NoError(t, err)

	f.clock.Advance(PasswordResetTTL + time.Second)
	err = f.svc.ResetPassword(ctx, token, "NewPass1")
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredToken)
}

func TestGeneratePasswordResetTokenUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GeneratePasswordResetToken(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	user, err := f.svc.VerifyEmail(ctx, res.VerificationToken)
	require.NoError(t, err)
	require.True(t, user.IsEmailVerified)

	_, err = f.svc.VerifyEmail(ctx, res.VerificationToken)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, apperrors.KindInvalidToken, appErr.Kind)
	require.Equal(t, 400, appErr.Status)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	err := f.svc.ChangePassword(ctx, res.User.ID, "wrong", "Xyz789")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	err = f.svc.ChangePassword(ctx, res.User.ID, "Abc123", "Abc123")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.svc.ChangePassword(ctx, res.User.ID, "Abc123", "weak")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, res.User.ID, "Abc123", "Xyz789"))
	_, err = f.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "Xyz789"})
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	p, err := f.svc.Authenticate(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, p.ID)
	require.False(t, p.IsAdmin)

	_, err = f.svc.Authenticate(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.store.Update(ctx, res.User.ID, UserPatch{IsActive: Bool(false)})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, res.Tokens.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthenticateIgnoresStaleAdminClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "boss@oipet.com", "Abc123")

	_, err := f.store.Update(ctx, res.User.ID, UserPatch{IsAdmin: Bool(false)})
	require.NoError(t, err)

	p, err := f.svc.Authenticate(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	require.False(t, p.IsAdmin)
}

func TestUpdateFCMToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "a@x.com", "Abc123")

	require.ErrorIs(t, f.svc.UpdateFCMToken(ctx, res.User.ID, "  "), apperrors.ErrValidation)
	require.NoError(t, f.svc.UpdateFCMToken(ctx, res.User.ID, "device-1"))

	u, _ := f.store.FindByID(ctx, res.User.ID)
	require.Equal(t, "device-1", u.FCMToken)

	require.ErrorIs(t, f.svc.UpdateFCMToken(ctx, primitive.NewObjectID(), "x"), apperrors.ErrUserNotFound)
}
