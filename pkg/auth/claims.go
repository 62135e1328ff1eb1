package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims accepted by the decision API.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole reports whether the claims include role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Roles recognised by the decision API.
const (
	RoleAdmin       = "admin"
	RoleUnderwriter = "underwriter"
	RoleAPIClient   = "api_client"
)

// DecisionRoles may request loan decisions.
var DecisionRoles = []string{RoleAdmin, RoleUnderwriter, RoleAPIClient}
