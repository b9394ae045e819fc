package session

import "time"

// Session is the server-side record of an authenticated client.
//
// Metadata holds free-form client context (ip, user agent, token expiry) chosen by the
// caller at creation time.
type Session struct {
	SchemaVersion uint8
	SessionID     string
	UserID        string
	Metadata      map[string]string

	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Meta returns the metadata value for key, or "".
func (s *Session) Meta(key string) string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
