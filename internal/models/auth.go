package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the access level carried in session tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
)

// GoogleLoginRequest carries the Google ID token obtained by the front-end.
type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// GoogleLoginResponse describes the signed-in owner and their registrations.
// Teacher is the first registration of the active year, when there is one.
type GoogleLoginResponse struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Picture     string    `json:"picture"`
	GoogleID    string    `json:"google_id"`
	Teacher     *Teacher  `json:"teacher,omitempty"`
	Teachers    []Teacher `json:"teachers"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
}

// JWTClaims represents the session token payload.
type JWTClaims struct {
	GoogleID string   `json:"google_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller of a registry operation.
type Actor struct {
	GoogleID string
	Email    string
	Name     string
	Role     UserRole
}

// ActorFromClaims converts session claims into an actor.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{GoogleID: c.GoogleID, Email: c.Email, Name: c.Name, Role: c.Role}
}

// IsAdmin reports whether the actor holds the operator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
