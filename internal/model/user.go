package model

import "time"

// Role names stored in users.role and embedded in access tokens.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// NormalizeRole maps an arbitrary role string onto a known role, defaulting
// to RoleUser.
func NormalizeRole(r string) string {
	if r == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User represents a row of the `users` table.
//
// Fields:
//  ID               – UUIDv7 string, generated at registration.
//  Login            – unique login.
//  PasswordHash     – bcrypt hash, never serialised.
//  Nom, Prenom      – display name.
//  Role             – RoleUser or RoleAdmin.
//  RefreshTokenHash – SHA-256 hex of the single live refresh token; nil after logout.
//  CreatedAt        – timestamp of creation.
type User struct {
	ID               string    // users.id
	Login            string    // users.login
	PasswordHash     string    // users.pass
	Nom              string    // users.nom
	Prenom           string    // users.prenom
	Role             string    // users.role
	RefreshTokenHash *string   // users.refresh_token (nullable)
	CreatedAt        time.Time // users.created_at
}

// PublicUser is the client-facing projection of a User.  It has no field
// for the password hash or the refresh token.
type PublicUser struct {
	ID     string `json:"id"`
	Login  string `json:"login"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Role   string `json:"role"`
}

// Public returns the projection safe to send to clients.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Login: u.Login, Nom: u.Nom, Prenom: u.Prenom, Role: u.Role}
}

// IsAdmin reports whether the stored role is exactly RoleAdmin.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Identity is what a verified access token says about the caller.  It is
// trusted for the lifetime of the token without a store lookup.
type Identity struct {
	ID    string
	Login string
	Role  string
}

// IsAdmin reports whether the token's role claim is exactly RoleAdmin.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
