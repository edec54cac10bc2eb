// Package models defines server-side data models persisted in the store.
package models

import "time"

// User is an account. PasswordHash and Avatar never leave the server:
// both are excluded from JSON, and active tokens are not part of the model.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"`
	Avatar       []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate it freely.
func (u *User) Clone() *User {
	c := *u
	if u.Avatar != nil {
		c.Avatar = append([]byte(nil), u.Avatar...)
	}
	return &c
}
