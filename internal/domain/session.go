package domain

import "time"

// Session is one authenticated client session. Each session owns its own
// dataset and group index; nothing is shared between sessions.
type Session struct {
	ID               string    `json:"id"`
	RefreshTokenHash string    `json:"refresh_token_hash"`
	IPAddress        string    `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent,omitempty"`
	DatasetID        string    `json:"dataset_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// IsExpired reports whether the session's refresh window has passed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch updates the last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}
