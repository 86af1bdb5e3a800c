package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/bborn/grocer/internal/api"
	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when no Google client is configured.
var ErrNotConfigured = errors.New("google sign-in is not configured")

// ErrNoIDToken is returned when Google granted a token without an ID token.
var ErrNoIDToken = errors.New("google did not return an id token")

// Exchanger trades a Google ID token for an API session.
type Exchanger interface {
	Google(ctx context.Context, cred api.GoogleCredential) (*api.AuthResponse, error)
}

// DeviceFlow runs a Google device authorization.
type DeviceFlow struct {
	config    *oauth2.Config
	exchanger Exchanger
}

// NewDeviceFlow creates a device flow for config that signs in through ex.
func NewDeviceFlow(config *oauth2.Config, ex Exchanger) (*DeviceFlow, error) {
	if !IsConfigured(config) {
		return nil, ErrNotConfigured
	}
	return &DeviceFlow{config: config, exchanger: ex}, nil
}

// Start asks Google for a user code. The caller shows
// VerificationURI and UserCode to the user, then calls Wait.
func (f *DeviceFlow) Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	da, err := f.config.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("start device authorization: %w", err)
	}
	return da, nil
}

// Wait polls Google until the user approves, then signs in to the API with
// the granted ID token. A rejection by the API is returned like any other
// failure.
func (f *DeviceFlow) Wait(ctx context.Context, da *oauth2.DeviceAuthResponse) (*api.AuthResponse, error) {
	token, err := f.config.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("wait for approval: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrNoIDToken
	}

	res, err := f.exchanger.Google(ctx, api.GoogleCredential{Credential: idToken, ClientID: f.config.ClientID})
	if err != nil {
		return nil, fmt.Errorf("google sign-in rejected: %w", err)
	}
	return res, nil
}
