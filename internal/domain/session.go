package domain

import "time"

// Session is one login of a user. A session is open until LogoutTime is set,
// and LogoutTime is written at most once.
type Session struct {
	ID         int64
	UserID     int64
	LoginTime  time.Time
	LogoutTime *time.Time
}

// IsOpen reports whether the session has not been logged out yet.
func (s *Session) IsOpen() bool {
	return s.LogoutTime == nil
}
