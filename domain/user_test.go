package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilePatch_JoinDateBecomesCreatedAt(t *testing.T) {
	user := User{Name: "Ana", Email: "ana@x.com", CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	patch := ProfilePatch{Name: ptr(" Ana Maria "), JoinDate: ptr("2023-07-15")}
	assert.NoError(t, patch.Validate())
	patch.Apply(&user)

	assert.Equal(t, "Ana Maria", user.Name)
	assert.Equal(t, "ana@x.com", user.Email)
	assert.Equal(t, time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC), user.CreatedAt)
}

func TestProfilePatch_Validate(t *testing.T) {
	assert.Error(t, ProfilePatch{Name: ptr("")}.Validate())
	assert.Error(t, ProfilePatch{Email: ptr("not-an-email")}.Validate())
	assert.Error(t, ProfilePatch{Email: ptr("Ana <ana@x.com>")}.Validate())
	assert.Error(t, ProfilePatch{Email: ptr("ana@")}.Validate())
	assert.NoError(t, ProfilePatch{Email: ptr(" ana@x.com ")}.Validate())
	assert.Error(t, ProfilePatch{JoinDate: ptr("15/07/2023")}.Validate())
	assert.NoError(t, ProfilePatch{JoinDate: ptr("")}.Validate())
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ana@x.com"))
	assert.False(t, ValidEmail("Ana <ana@x.com>"))
	assert.False(t, ValidEmail("ana"))
	assert.False(t, ValidEmail(""))
}

func TestUser_PublicAndUnread(t *testing.T) {
	user := User{
		ID:       "u1",
		Password: "hash",
		Notifications: []Notification{
			{ID: "n1", Read: true},
			{ID: "n2"},
		},
	}

	public := user.Public()
	assert.Empty(t, public.Password)
	assert.Equal(t, "hash", user.Password)
	assert.Equal(t, 1, user.UnreadCount())

	public.Notifications[0].Read = false
	assert.True(t, user.Notifications[0].Read)
}

func TestNewSessionState(t *testing.T) {
	assert.Equal(t, SessionState{}, NewSessionState(nil))

	state := NewSessionState(&User{ID: "u1", Password: "hash"})
	assert.True(t, state.Authenticated)
	assert.Equal(t, "u1", state.User.ID)
	assert.Empty(t, state.User.Password)
}
