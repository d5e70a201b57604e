package dto

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email      string `json:"email"      binding:"required,email"`
	FullName   string `json:"full_name"  binding:"required,min=2,max=100"`
	Password   string `json:"password"   binding:"required,min=8,max=72"`
	Department string `json:"department" binding:"omitempty,max=100"`
	Phone      string `json:"phone"      binding:"omitempty,max=30"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest updates the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResponse is the token pair plus the signed-in profile.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // access token lifetime, seconds
	User         UserResponse `json:"user"`
}
