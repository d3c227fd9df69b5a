// Package subscriptions persists the device-side push subscription: the
// endpoint handed to the remote authority together with the private key
// material needed to decrypt messages delivered to it.
package subscriptions

import (
	"context"

	"github.com/storyshelf/storyshelf/internal/client/models"
)

type Repository interface {
	// Save stores s, replacing any subscription with the same endpoint.
	Save(ctx context.Context, s *models.PushSubscription) error

	// Current returns the most recently created subscription, or
	// common.ErrorNotFound when there is none.
	Current(ctx context.Context) (*models.PushSubscription, error)

	// GetByEndpoint returns the subscription for endpoint, or
	// common.ErrorNotFound.
	GetByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error)

	// DeleteAll removes every stored subscription.
	DeleteAll(ctx context.Context) error
}
