package models

import "time"

// User is an account able to call authenticated endpoints.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Info returns the public view of u.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}
