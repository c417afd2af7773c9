package users

import (
	"context"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/internal/features/auth"
	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	apperrors "github.com/xyz-asif/oipet/pkg/errors"
)

// PasswordChanger is implemented by the auth service.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error
}

type Service struct {
	users     auth.UserStore
	passwords PasswordChanger
	uploader  cloudinary.Uploader
}

// NewService wires the profile service. uploader may be nil when image
// hosting is not configured.
func NewService(users auth.UserStore, passwords PasswordChanger, uploader cloudinary.Uploader) *Service {
	return &Service{users: users, passwords: passwords, uploader: uploader}
}

func (s *Service) Profile(ctx context.Context, id primitive.ObjectID) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, req UpdateProfileRequest) (*auth.User, error) {
	var patch auth.UserPatch
	var details []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		details = append(details, auth.ValidateName(name)...)
		patch.Name = &name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		details = append(details, auth.ValidatePhone(phone)...)
		patch.Phone = &phone
	}
	if len(details) > 0 {
		return nil, apperrors.Validation("validation failed", details...)
	}
	if patch.IsEmpty() {
		return nil, apperrors.Validation("no updatable fields supplied")
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, req ChangePasswordRequest) error {
	return s.passwords.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword)
}

// Deactivate soft deletes the account. Its tokens stop authenticating at
// once because every request reloads the user.
func (s *Service) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.users.Update(ctx, id, auth.UserPatch{IsActive: auth.Bool(false), FCMToken: auth.String("")})
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}
	logger.FromContext(ctx).Info("account deactivated", zap.String("user_id", id.Hex()))
	return nil
}

// SetAvatar uploads a new profile picture and drops the previous one.
func (s *Service) SetAvatar(ctx context.Context, id primitive.ObjectID, file io.Reader) (*auth.User, error) {
	if s.uploader == nil {
		return nil, apperrors.Unavailable(cloudinary.ErrNotConfigured)
	}
	current, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.uploader.UploadImage(ctx, file, "users")
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	user, err := s.users.Update(ctx, id, auth.UserPatch{
		Avatar:         &uploaded.URL,
		AvatarPublicID: &uploaded.PublicID,
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.uploader.Delete(ctx, uploaded.PublicID)
		return nil, apperrors.ErrUserNotFound
	}

	if current.AvatarPublicID != "" {
		if err := s.uploader.Delete(ctx, current.AvatarPublicID); err != nil {
			logger.FromContext(ctx).Warn("previous avatar not removed",
				zap.String("public_id", current.AvatarPublicID), zap.Error(err))
		}
	}
	return user, nil
}
