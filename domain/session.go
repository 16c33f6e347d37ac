package domain

// SessionState is the authentication state read by the presentation layer.
type SessionState struct {
	Authenticated bool  `json:"isAuthenticated"`
	User          *User `json:"user,omitempty"`
}

// NewSessionState builds the state for an optional current user.
func NewSessionState(user *User) SessionState {
	if user == nil {
		return SessionState{}
	}
	public := user.Public()
	return SessionState{Authenticated: true, User: &public}
}
