package models

import (
	"strings"
	"time"
)

// User represents a row of the users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ShareToken   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Normalize trims the username and email and lower-cases the email.
// The password is left untouched.
func (in *RegisterInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
}

// Complete reports whether every field is non-empty.
func (in RegisterInput) Complete() bool {
	return in.Username != "" && in.Email != "" && in.Password != ""
}

// TooLong reports whether any field exceeds what the users table or bcrypt accepts.
func (in RegisterInput) TooLong() bool {
	return tooLong(in.Username, MaxUsernameLen) ||
		tooLong(in.Email, MaxEmailLen) ||
		len(in.Password) > MaxPasswordLen
}

// UsernameAllowed reports whether the username can never be mistaken for an
// email address at login.
func (in RegisterInput) UsernameAllowed() bool {
	return !IsEmail(in.Username)
}

// LoginInput is the login form. Identifier may be a username or an email.
type LoginInput struct {
	Identifier string `form:"username"`
	Password   string `form:"password"`
}

// IsEmail reports whether a login identifier names an email address rather
// than a username.
func IsEmail(identifier string) bool {
	return strings.Contains(identifier, "@")
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
