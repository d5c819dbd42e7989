package models

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse wraps the authenticated user on register and login.
type AuthResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

// MessageResponse is the bare confirmation envelope (logout, delete-ack).
type MessageResponse struct {
	Message string `json:"message"`
}
