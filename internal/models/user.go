// Package models defines the domain types and errors shared across the backend.
package models

import (
	"time"
)

// BaseUser holds the identity fields shared by every user view.
type BaseUser struct {
	ID       string      `json:"id"`
	Username string      `json:"username" validate:"required,min=3,max=30,username"`
	Profile  UserProfile `json:"profile"`
	Roles    []string    `json:"roles"`
}

// User is the full stored account record.
//
// The record, including the password hash, is what the file store persists.
// Handlers must only ever serialize the PersonalUser view, never a raw User.
type User struct {
	BaseUser

	Email string `json:"email" validate:"required,email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"passwordHash"`

	// IsActive is false for disabled accounts. Disabled accounts keep their
	// data but cannot log in.
	IsActive bool `json:"isActive"`

	LastLogin time.Time `json:"lastLogin"`

	ObjectTimes
}

// UserProfile is the user-editable part of an account.
type UserProfile struct {
	// DisplayName is the name shown alongside the user's results.
	DisplayName string `json:"displayName" validate:"max=50"`

	Bio string `json:"bio" validate:"max=500"`

	// AvatarURL is an optional avatar image URL.
	AvatarURL string `json:"avatarUrl,omitempty" validate:"omitempty,url"`

	FavoriteGenres []string `json:"favoriteGenres,omitempty"`

	// Language is the user's preferred language code, e.g. "en".
	Language string `json:"language" validate:"max=10"`

	// JoinDate is set once at registration and never changes.
	JoinDate time.Time `json:"joinDate"`
}

// PersonalUser is the slice of a user record that is safe to return to its
// owner.
type PersonalUser struct {
	BaseUser

	Email     string    `json:"email"`
	LastLogin time.Time `json:"lastLogin"`
}

// ToPersonalUser strips the stored record down to the owner-visible view.
func (u *User) ToPersonalUser() PersonalUser {
	return PersonalUser{
		BaseUser:  u.BaseUser,
		Email:     u.Email,
		LastLogin: u.LastLogin,
	}
}

// UserStatsSummary aggregates a user's activity for their profile page.
type UserStatsSummary struct {
	// TotalIdentifications is the number of identification requests the user
	// has made.
	TotalIdentifications int64 `json:"totalIdentifications"`

	// SavedMovies is the number of titles in the user's library.
	SavedMovies int64 `json:"savedMovies"`

	// MemberSince is when the user joined.
	MemberSince time.Time `json:"memberSince"`
}

// UserRegisterRequest is the payload for creating an account.
type UserRegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

// UserLoginRequest is the payload for authenticating.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest is the payload for changing the username or profile.
// Empty fields are left untouched.
type UserUpdateRequest struct {
	Username string       `json:"username" validate:"omitempty,min=3,max=30,username"`
	Profile  *UserProfile `json:"profile,omitempty"`
}

// UserPasswordChangeRequest is the payload for rotating a password.
type UserPasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,password"`
}
