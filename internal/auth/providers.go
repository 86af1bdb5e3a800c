// Package auth signs users in with Google from a terminal, using the OAuth2
// device authorization flow, and trades the resulting ID token for a grocery
// API session.
package auth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested from Google. openid is what yields an ID token.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleConfig returns the OAuth2 config for Google sign-in.
func GoogleConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// IsConfigured checks if a config has the credentials the device flow needs.
func IsConfigured(cfg *oauth2.Config) bool {
	return cfg != nil && cfg.ClientID != "" && cfg.ClientSecret != ""
}
