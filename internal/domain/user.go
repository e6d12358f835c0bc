package domain

import "strings"

// UserProfile is keyed by the session's user id; Email is the identity key
// and never changes through profile saves.
type UserProfile struct {
	UID         string `json:"uid" bson:"uid"`
	Email       string `json:"email" bson:"email"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Address     string `json:"address" bson:"address"`
	Phone       string `json:"phone" bson:"phone"`
	AvatarKey   string `json:"avatar_key,omitempty" bson:"avatar_key,omitempty"`
}

// Session is the authenticated identity as seen by the rest of the app.
// IsAdmin is derived from configuration at token-parse time, never stored.
type Session struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	IsAdmin       bool   `json:"is_admin"`
}

// Owns reports whether the session may read records tagged with the given
// user id or email. Admins own everything.
func (s *Session) Owns(userID, email string) bool {
	if s.IsAdmin {
		return true
	}
	if userID != "" && userID == s.UID {
		return true
	}
	return email != "" && strings.EqualFold(email, s.Email)
}
