package cli

import (
	"errors"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/client/repositories/bookmarks"
	"github.com/storyshelf/storyshelf/internal/client/services"
)

// fail prints the user-facing message for err and returns err unchanged.
// kind selects the offline fallback (see connectivity.Fallback).
func (a *App) fail(kind string, err error) error {
	fmt.Fprintln(a.out, message(kind, err))
	return err
}

func message(kind string, err error) string {
	var (
		regErr     *services.ServerRegistrationError
		partialErr *services.PartialUnsubscribeError
		storeErr   *services.StorageError
	)
	switch {
	case errors.As(err, &regErr):
		return "Notifications are enabled on this device, but the server did not accept the subscription: " +
			detail(regErr.Message, regErr.Err) + ". Run 'subscribe' to retry."
	case errors.As(err, &partialErr):
		return "Notifications are disabled on this device, but the server still has the subscription: " +
			detail(partialErr.Message, partialErr.Err) + ". Run 'unsubscribe' to retry."
	case errors.Is(err, services.ErrOffline), errors.Is(err, client.ErrUnavailable):
		return connectivity.Fallback(kind)
	case errors.Is(err, services.ErrUnauthenticated):
		return "Please log in first."
	case errors.Is(err, client.ErrUnauthorized):
		return "The server rejected your credentials."
	case errors.Is(err, services.ErrPermissionDenied):
		return "Notifications are blocked for this app."
	case errors.Is(err, bookmarks.ErrDuplicateKey):
		return "Already bookmarked."
	case errors.As(err, &storeErr):
		return "Local storage failed: " + storeErr.Err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func detail(msg string, err error) string {
	if msg != "" {
		return msg
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
