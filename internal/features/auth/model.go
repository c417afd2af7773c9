package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/oipet/internal/pkg/jwt"
)

// User represents a registered user in the system. Secrets and single use
// tokens never leave the server: their json tag is "-".
type User struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email                  string             `bson:"email" json:"email"`
	PasswordHash           string             `bson:"password" json:"-"`
	Name                   string             `bson:"name" json:"name"`
	Phone                  string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Avatar                 string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	AvatarPublicID         string             `bson:"avatarPublicId,omitempty" json:"-"`
	IsAdmin                bool               `bson:"isAdmin" json:"isAdmin"`
	IsActive               bool               `bson:"isActive" json:"isActive"`
	IsEmailVerified        bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	FCMToken               string             `bson:"fcmToken,omitempty" json:"-"`
	EmailVerificationToken string             `bson:"emailVerificationToken,omitempty" json:"-"`
	PasswordResetToken     string             `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires   *time.Time         `bson:"passwordResetExpires,omitempty" json:"-"`
	LastLoginAt            *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt              time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the token identity of u.
func (u *User) Identity() jwt.Identity {
	return jwt.Identity{UserID: u.ID.Hex(), Email: u.Email, IsAdmin: u.IsAdmin}
}

// UserPatch is the allowlist of user fields that may change after
// creation. Nil pointers are left untouched.
type UserPatch struct {
	Name            *string
	Phone           *string
	Avatar          *string
	AvatarPublicID  *string
	FCMToken        *string
	PasswordHash    *string
	IsActive        *bool
	IsAdmin         *bool
	IsEmailVerified *bool
	LastLoginAt     *time.Time

	PasswordResetToken   *string
	PasswordResetExpires *time.Time
	ClearPasswordReset   bool
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Avatar == nil && p.AvatarPublicID == nil &&
		p.FCMToken == nil && p.PasswordHash == nil && p.IsActive == nil && p.IsAdmin == nil &&
		p.IsEmailVerified == nil && p.LastLoginAt == nil && p.PasswordResetToken == nil &&
		p.PasswordResetExpires == nil && !p.ClearPasswordReset
}

// Apply mutates u in place; used by the in-memory store.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.AvatarPublicID != nil {
		u.AvatarPublicID = *p.AvatarPublicID
	}
	if p.FCMToken != nil {
		u.FCMToken = *p.FCMToken
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.IsEmailVerified != nil {
		u.IsEmailVerified = *p.IsEmailVerified
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		u.LastLoginAt = &t
	}
	if p.PasswordResetToken != nil {
		u.PasswordResetToken = *p.PasswordResetToken
	}
	if p.PasswordResetExpires != nil {
		t := *p.PasswordResetExpires
		u.PasswordResetExpires = &t
	}
	if p.ClearPasswordReset {
		u.PasswordResetToken = ""
		u.PasswordResetExpires = nil
	}
}

// Request DTOs

type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"Ana Souza"`
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"Senha123"`
	Phone    string `json:"phone" example:"(11) 98765-4321"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

type FCMTokenRequest struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

// Response DTOs

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User              *User         `json:"user"`
	Tokens            jwt.TokenPair `json:"tokens"`
	VerificationToken string        `json:"verificationToken,omitempty"`
}

// RefreshResponse carries a new access token only; the refresh token is
// not rotated.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        *User  `json:"user"`
}

type ForgotPasswordResponse struct {
	ResetToken string `json:"resetToken,omitempty"`
}
