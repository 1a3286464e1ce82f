package models

// SignupRequest carries the signup form fields
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest carries the login form fields. Login may be an email or a username.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
