package model

import (
	"database/sql"
	"time"
)

// User represents a user account.
type User struct {
	ID                     string         `json:"id"`
	Email                  string         `json:"email"`
	PasswordHash           string         `json:"-"` // Not exposed in API responses
	FirstName              string         `json:"firstName"`
	LastName               string         `json:"lastName"`
	Avatar                 sql.NullString `json:"-"`
	BirthDate              sql.NullTime   `json:"-"`
	IsEmailConfirmed       bool           `json:"isEmailConfirmed"`
	EmailConfirmationToken sql.NullString `json:"-"`
	LastLoginAt            sql.NullTime   `json:"-"`
	CreatedAt              time.Time      `json:"createdAt"`
}

// UserResponse is the user payload returned by the auth endpoints.
type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Avatar           *string    `json:"avatar,omitempty"`
	BirthDate        *time.Time `json:"birthDate,omitempty"`
	IsEmailConfirmed bool       `json:"isEmailConfirmed"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ToResponse converts a User to its API representation.
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		IsEmailConfirmed: u.IsEmailConfirmed,
		CreatedAt:        u.CreatedAt,
	}
	if u.Avatar.Valid {
		resp.Avatar = &u.Avatar.String
	}
	if u.BirthDate.Valid {
		t := u.BirthDate.Time
		resp.BirthDate = &t
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		resp.LastLoginAt = &t
	}
	return resp
}
