package models

// JWTClaims holds the claims extracted from the bearer token. The token is
// validated at the gateway; the service only reads identity claims.
type JWTClaims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}
