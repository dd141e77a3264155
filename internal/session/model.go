// Package session implements authentication for the backend: login,
// registration with email activation, and the password recovery flow.
// Accounts live in the user package; this package owns the credential
// and verification logic around them.
package session

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest holds the login form. The user field accepts an email
// address or a username.
type LoginRequest struct {
	User     string `json:"user" form:"user"`
	Password string `json:"password" form:"password"`
}

// LoginSwaggerRequest is the OAuth2 password form used by API docs
// tooling; username carries the email address.
type LoginSwaggerRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest holds the data submitted on sign-up.
type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	LastName string `json:"last_name" form:"last_name"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ActivateRequest carries the emailed activation code.
type ActivateRequest struct {
	Email          string `json:"email" form:"email"`
	ValidationCode int    `json:"validation_code" form:"validation_code"`
}

// RecoverPasswordRequest starts the password reset flow.
type RecoverPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordRequest completes the password reset flow.
type ResetPasswordRequest struct {
	Email          string `json:"email" form:"email"`
	ValidationCode int    `json:"validation_code" form:"validation_code"`
	NewPassword    string `json:"new_password" form:"new_password"`
	RepeatPassword string `json:"repeat_password" form:"repeat_password"`
}

// --- Response DTOs ---

// UserAPI is the login response. The token field carries the full
// Authorization header value.
type UserAPI struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

// TokenAPI is the login-swagger response, shaped for OAuth2 tooling.
type TokenAPI struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterAPI is the registration response.
type RegisterAPI struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// StatusAPI is a generic outcome message body.
type StatusAPI struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
