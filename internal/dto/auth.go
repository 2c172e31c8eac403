package dto

// LoginResponse is returned by a successful login
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	User        UserDTO `json:"user"`
}

// AuthStatusResponse echoes the authenticated identity
type AuthStatusResponse struct {
	User    UserDTO `json:"user"`
	Message string  `json:"message"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
