package cli

import (
	"context"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/client/services"
)

// Subscribe enables story notifications. When the device is already
// subscribed but the server never acknowledged it, only the server step is
// retried.
func (a *App) Subscribe(ctx context.Context) error {
	st, err := a.push.State(ctx)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}

	switch st {
	case services.FullySubscribed:
		fmt.Fprintln(a.out, "Notifications are already enabled.")
		return nil
	case services.LocallySubscribed:
		_, err = a.push.RegisterWithServer(ctx)
	default:
		_, err = a.push.Subscribe(ctx)
	}
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	fmt.Fprintln(a.out, "Notifications enabled.")
	return nil
}

// Unsubscribe disables notifications. A remote deletion left over from an
// earlier attempt is retried first.
func (a *App) Unsubscribe(ctx context.Context) error {
	pending, err := a.push.PendingRemoteDeletion(ctx)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	if pending != "" {
		if err := a.push.RetryRemoteDeletion(ctx); err != nil {
			return a.fail(connectivity.FallbackGeneral, err)
		}
	}

	if err := a.push.Unsubscribe(ctx); err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	fmt.Fprintln(a.out, "Notifications disabled.")
	return nil
}

func (a *App) PushStatus(ctx context.Context) error {
	st, err := a.push.State(ctx)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	fmt.Fprintf(a.out, "Notifications: %s\n", st)

	if pending, err := a.push.PendingRemoteDeletion(ctx); err == nil && pending != "" {
		fmt.Fprintf(a.out, "Server still holds %s; run 'unsubscribe' to retry.\n", pending)
	}
	return nil
}
