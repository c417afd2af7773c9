package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/middleware"
	"github.com/xyz-asif/oipet/internal/pkg/jwt"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/password"
	"github.com/xyz-asif/oipet/internal/pkg/validator"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// PasswordResetTTL is how long a reset token stays usable.
const PasswordResetTTL = 10 * time.Minute

// Options wires the auth service. Revocations may be nil, in which case
// logout is audit only.
type Options struct {
	Users        UserStore
	Tokens       *jwt.Manager
	Hasher       *password.Hasher
	Revocations  RevocationStore
	IsAdminEmail func(email string) bool
	Now          func() time.Time
}

// Service implements registration, login and the token lifecycle.
type Service struct {
	users        UserStore
	tokens       *jwt.Manager
	hasher       *password.Hasher
	revocations  RevocationStore
	isAdminEmail func(string) bool
	now          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(opts Options) *Service {
	if opts.Hasher == nil {
		opts.Hasher = password.NewHasher(password.DefaultCost)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IsAdminEmail == nil {
		opts.IsAdminEmail = func(string) bool { return false }
	}
	return &Service{
		users:        opts.Users,
		tokens:       opts.Tokens,
		hasher:       opts.Hasher,
		revocations:  opts.Revocations,
		isAdminEmail: opts.IsAdminEmail,
		now:          opts.Now,
	}
}

var _ middleware.Authenticator = (*Service)(nil)

// Register creates an account and signs the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := ValidateRegister(&req); err != nil {
		return nil, err
	}
	email := validator.NormalizeEmail(req.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	verifyToken, verifyHash, err := newOpaqueToken()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := s.now()
	user := &User{
		Email:                  email,
		PasswordHash:           hash,
		Name:                   strings.TrimSpace(req.Name),
		Phone:                  strings.TrimSpace(req.Phone),
		IsAdmin:                s.isAdminEmail(email),
		IsActive:               true,
		EmailVerificationToken: verifyHash,
		LastLoginAt:            &now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(user.Identity())
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.FromContext(ctx).Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", logger.MaskEmail(email)),
		zap.Bool("is_admin", user.IsAdmin))

	return &AuthResponse{User: user, Tokens: tokens, VerificationToken: verifyToken}, nil
}

// Login answers InvalidCredentials for unknown email, wrong password and
// deactivated accounts alike.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := validator.NormalizeEmail(req.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison so response time does not reveal the miss.
		s.hasher.Compare(s.fakeHash(), req.Password)
		logger.FromContext(ctx).Info("login failed", zap.String("email", logger.MaskEmail(email)))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Compare(user.PasswordHash, req.Password) || !user.IsActive {
		logger.FromContext(ctx).Info("login failed",
			zap.String("user_id", user.ID.Hex()),
			zap.Bool("active", user.IsActive))
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	updated, err := s.users.Update(ctx, user.ID, UserPatch{LastLoginAt: &now})
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(updated.Identity())
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.FromContext(ctx).Info("user logged in", zap.String("user_id", updated.ID.Hex()))
	return &AuthResponse{User: updated, Tokens: tokens}, nil
}

func (s *Service) fakeHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	return s.dummyHash
}

// Refresh issues a new access token. The refresh token itself is kept.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.Unavailable(err)
		}
		if revoked {
			return nil, apperrors.ErrInvalidRefreshToken
		}
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound.WithStatus(http.StatusUnauthorized)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccessToken(user.Identity())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int64(s.tokens.AccessExpiry().Seconds()),
		User:        user,
	}, nil
}

// Logout records the event and, when the caller hands over its own refresh
// token, denylists it until it would have expired.
func (s *Service) Logout(ctx context.Context, userID primitive.ObjectID, refreshToken string) error {
	lg := logger.FromContext(ctx).With(zap.String("user_id", userID.Hex()))

	if refreshToken == "" || s.revocations == nil {
		lg.Info("user logged out")
		return nil
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil || claims.UserID != userID.Hex() {
		lg.Info("user logged out; refresh token ignored")
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.Unavailable(err)
	}
	lg.Info("user logged out; refresh token revoked", zap.String("jti", claims.ID))
	return nil
}

// GeneratePasswordResetToken stores the hash of a fresh token and returns
// the raw value for delivery.
func (s *Service) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.ErrUserNotFound
	}

	token, hash, err := newOpaqueToken()
	if err != nil {
		return "", apperrors.Internal(err)
	}
	expires := s.now().Add(PasswordResetTTL)
	if _, err := s.users.Update(ctx, user.ID, UserPatch{
		PasswordResetToken:   &hash,
		PasswordResetExpires: &expires,
	}); err != nil {
		return "", err
	}

	logger.FromContext(ctx).Info("password reset requested", zap.String("user_id", user.ID.Hex()))
	return token, nil
}

// ResetPassword consumes token and sets newPassword in one write.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidateNewPassword(newPassword); err != nil {
		return err
	}
	if !validator.IsHexToken(token) {
		return apperrors.ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Internal(err)
	}

	user, err := s.users.ConsumePasswordReset(ctx, hashToken(token), s.now(), hash)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrInvalidOrExpiredToken
	}

	logger.FromContext(ctx).Info("password reset", zap.String("user_id", user.ID.Hex()))
	return nil
}

var errInvalidVerification = apperrors.New(apperrors.KindInvalidToken, "invalid verification token").
	WithStatus(http.StatusBadRequest)

// VerifyEmail consumes an email verification token.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if !validator.IsHexToken(token) {
		return nil, errInvalidVerification
	}
	user, err := s.users.ConsumeEmailVerification(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidVerification
	}
	logger.FromContext(ctx).Info("email verified", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// UpdateFCMToken stores the device token used for push notifications.
func (s *Service) UpdateFCMToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.Validation("fcmToken is required")
	}
	_, err := s.users.Update(ctx, userID, UserPatch{FCMToken: &token})
	return err
}

// ChangePassword replaces the password of a signed in user.
func (s *Service) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(user.PasswordHash, current) {
		return apperrors.New(apperrors.KindInvalidCredentials, "current password is incorrect").
			WithStatus(http.StatusBadRequest)
	}
	if current == next {
		return apperrors.Validation("new password must differ from the current one")
	}
	if err := ValidateNewPassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.Internal(err)
	}
	if _, err := s.users.Update(ctx, userID, UserPatch{PasswordHash: &hash}); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("password changed", zap.String("user_id", userID.Hex()))
	return nil
}

// GetUser returns the stored user or UserNotFound.
func (s *Service) GetUser(ctx context.Context, id primitive.ObjectID) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// Authenticate verifies an access token against the store. Admin rights
// need both the signed claim and the stored flag.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*middleware.Principal, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}

	return &middleware.Principal{
		ID:              user.ID,
		Email:           user.Email,
		IsAdmin:         claims.IsAdmin && user.IsAdmin,
		IsEmailVerified: user.IsEmailVerified,
	}, nil
}

// newOpaqueToken returns a random 32 byte hex token and the hash to store.
func newOpaqueToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
