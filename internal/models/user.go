package models

import (
	"fmt"
	"strings"
	"time"
)

// User owns a tree of tasks and, optionally, a linked Google Calendar
// account whose tokens live on the user row.
type User struct {
	id             string
	sequence       int
	email          string
	name           string
	calendarLinked bool
	accessToken    string
	refreshToken   string
	tokenExpiry    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewUser creates a user with the given sequence number, email, and name.
func NewUser(sequence int, email, name string) *User {
	now := time.Now()
	return &User{
		sequence:  sequence,
		email:     email,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string             { return u.id }
func (u *User) Sequence() int          { return u.sequence }
func (u *User) Email() string          { return u.email }
func (u *User) Name() string           { return u.name }
func (u *User) CalendarLinked() bool   { return u.calendarLinked }
func (u *User) AccessToken() string    { return u.accessToken }
func (u *User) RefreshToken() string   { return u.refreshToken }
func (u *User) TokenExpiry() *time.Time { return u.tokenExpiry }
func (u *User) CreatedAt() time.Time   { return u.createdAt }
func (u *User) UpdatedAt() time.Time   { return u.updatedAt }
func (u *User) DeletedAt() *time.Time  { return u.deletedAt }

func (u *User) SetID(id string)            { u.id = id }
func (u *User) SetEmail(email string)      { u.email = email }
func (u *User) SetName(name string)        { u.name = name }
func (u *User) SetCreatedAt(at time.Time)  { u.createdAt = at }
func (u *User) SetUpdatedAt(at time.Time)  { u.updatedAt = at }
func (u *User) SetDeletedAt(at *time.Time) { u.deletedAt = at }

// LinkCalendar stores calendar tokens on the user and marks the account linked.
func (u *User) LinkCalendar(accessToken, refreshToken string, expiry *time.Time) {
	u.calendarLinked = true
	u.accessToken = accessToken
	u.refreshToken = refreshToken
	u.tokenExpiry = expiry
}

// UnlinkCalendar clears calendar tokens and marks the account unlinked.
func (u *User) UnlinkCalendar() {
	u.calendarLinked = false
	u.accessToken = ""
	u.refreshToken = ""
	u.tokenExpiry = nil
}

// Validate checks that the user has a plausible email and a name.
func (u *User) Validate() error {
	if u.email == "" || !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %q", u.email)
	}
	if u.name == "" {
		return fmt.Errorf("user name is required")
	}
	return nil
}
