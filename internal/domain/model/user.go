package model

import "time"

// User is an account created on first OAuth login.
type User struct {
	InternalUserID string    `json:"internal_user_id"`
	ProviderUserID int64     `json:"-"`
	AtCoderUserID  *string   `json:"atcoder_user_id"`
	CreatedAt      time.Time `json:"-"`
}

// Session binds an opaque token to a user until ExpiresAt.
type Session struct {
	Token          string
	InternalUserID string
	ExpiresAt      time.Time
}
