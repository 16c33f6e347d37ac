package domain

import (
	"net/mail"
	"strings"
	"time"
)

// NotificationInfo is the type given to notifications created without one.
const NotificationInfo = "info"

// ValidEmail reports whether value is a bare address such as ana@example.com.
func ValidEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// User is a registered account. Password holds a bcrypt hash and is never exposed.
type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Password      string         `json:"password,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Notifications []Notification `json:"notifications"`
}

// Public returns a copy without the password hash.
func (u User) Public() User {
	out := u.Clone()
	out.Password = ""
	return out
}

func (u User) Clone() User {
	out := u
	if u.Notifications != nil {
		out.Notifications = append(make([]Notification, 0, len(u.Notifications)), u.Notifications...)
	}
	return out
}

// UnreadCount counts notifications not yet marked read.
func (u User) UnreadCount() int {
	count := 0
	for _, n := range u.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Notification is embedded in its owner's record.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationInput is the caller-supplied part of a notification.
type NotificationInput struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (in NotificationInput) Validate() error {
	if strings.TrimSpace(in.Message) == "" {
		return Validation("notification message is required")
	}
	return nil
}

// ProfilePatch lists the profile fields a user may change.
// JoinDate is stored as CreatedAt.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	JoinDate *string `json:"joinDate,omitempty"`
}

func (p ProfilePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return Validation("name must not be empty")
	}
	if p.Email != nil && !ValidEmail(strings.TrimSpace(*p.Email)) {
		return Validation("invalid email %q", *p.Email)
	}
	if p.JoinDate != nil && strings.TrimSpace(*p.JoinDate) != "" {
		if _, err := ParseDate(*p.JoinDate); err != nil {
			return Validation("invalid joinDate: %v", err)
		}
	}
	return nil
}

// Apply merges the patch onto u. Call Validate first.
func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if p.JoinDate != nil && strings.TrimSpace(*p.JoinDate) != "" {
		if joined, err := ParseDate(*p.JoinDate); err == nil {
			u.CreatedAt = joined.Time
		}
	}
}
