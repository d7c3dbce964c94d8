package domain

import "time"

// User is the profile record returned by get_user_profile. Identity is
// resolved by the authentication layer before a tool executor is built, so
// this package never sees credentials.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a copy safe to hand out.
func (u *User) Clone() *User {
	cp := *u
	return &cp
}
