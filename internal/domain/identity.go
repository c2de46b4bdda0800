package domain

// Identity is who is logged in, as handed out by a successful login.
// It is never persisted; callers pass it along explicitly.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsZero reports whether the identity is the anonymous zero value.
func (i Identity) IsZero() bool {
	return i.UserID == 0
}
