// Package common defines shared constants, helpers and sentinel errors used
// across the storyshelf client. Callers should use errors.Is to match the
// sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Token errors raised while inspecting the stored bearer token.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
