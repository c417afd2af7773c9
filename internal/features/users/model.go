package users

// UpdateProfileRequest lists the only profile fields a user may change.
type UpdateProfileRequest struct {
	Name  *string `json:"name" example:"Ana Souza"`
	Phone *string `json:"phone" example:"(11) 98765-4321"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}
