package dto

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	FullName        string `json:"fullName"`
	Address         string `json:"address"`
	PinCode         string `json:"pinCode"`
	Phone           string `json:"phone"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string        `json:"token"`
	User  *PrincipalDTO `json:"user"`
}

// PrincipalDTO represents the authenticated principal returned to clients
type PrincipalDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Kind     string `json:"kind"`
}

// ChangePasswordRequest represents a request to change password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ChangePasswordResponse represents a response to change password
type ChangePasswordResponse struct {
	Success bool `json:"success"`
}
