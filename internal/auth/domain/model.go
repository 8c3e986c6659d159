package domain

import "time"

// User represents a wallet-authenticated user.
// The wallet address is the natural key and is stored as given, since
// base58 addresses are case-sensitive.
type User struct {
	ID            string                 `json:"id"`
	WalletAddress string                 `json:"walletAddress"`
	IsAdmin       bool                   `json:"isAdmin"`
	Preferences   map[string]interface{} `json:"preferences,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	LastLoginAt   *time.Time             `json:"lastLogin,omitempty"`
}

// DefaultPreferences are applied to new users.
func DefaultPreferences() map[string]interface{} {
	return map[string]interface{}{
		"theme":         "dark",
		"notifications": true,
	}
}

// Session is a server-side login bound to one issued token.
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	WalletAddress string    `json:"walletAddress"`
	IsAdmin       bool      `json:"isAdmin"`
	ExpiresAt     time.Time `json:"expiresAt"`
	LastActivity  time.Time `json:"lastActivity"`
	UserAgent     string    `json:"userAgent,omitempty"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Challenge is a one-time message a wallet must sign to log in.
type Challenge struct {
	WalletAddress string    `json:"walletAddress"`
	Nonce         string    `json:"nonce"`
	Message       string    `json:"message"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Claims are the fields carried in an access token.
type Claims struct {
	UserID        string
	WalletAddress string
	SessionID     string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// AuthenticateRequest is a signed challenge response.
type AuthenticateRequest struct {
	WalletAddress string
	Signature     string
	UserAgent     string
	IPAddress     string
}

// AuthResult is returned after a successful login.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
