package auth

import "keystone/models"

// Principal is the caller a request acts for. The zero value is anonymous.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// Anonymous is the principal of unauthenticated requests.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// IsAdmin requires an authenticated principal whose role is exactly "admin".
func (p Principal) IsAdmin() bool {
	return p.Authenticated() && p.Role == models.RoleAdmin
}
