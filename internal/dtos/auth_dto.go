package dtos

import "github.com/hiro4859/syukatsu-base-v2/internal/auth"

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateEmailRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SessionResponse is returned by sign-up, sign-in and the session endpoint.
// Session is null for a signed-out visitor.
type SessionResponse struct {
	Session *auth.Session `json:"session"`
	Demo    bool          `json:"demo"`
}
