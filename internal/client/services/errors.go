package services

import (
	"errors"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/netx"
)

var (
	// ErrUnauthenticated means no usable bearer token is stored.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrPermissionDenied means the user refused notifications. The refusal
	// holds for the rest of the session.
	ErrPermissionDenied = errors.New("notification permission denied")

	// ErrOffline is returned by network-dependent operations while the
	// connectivity monitor reports offline.
	ErrOffline = errors.New("offline")

	// ErrNotSubscribed means there is no local push subscription to act on.
	ErrNotSubscribed = errors.New("no push subscription on this device")
)

// StorageError wraps a failure of the local storage engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("bookmark store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ServerRegistrationError means the remote authority did not acknowledge a
// subscription. The local subscription is still in place.
type ServerRegistrationError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *ServerRegistrationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("push registration rejected (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("push registration failed: %v", e.Err)
}

func (e *ServerRegistrationError) Unwrap() error { return e.Err }

// PartialUnsubscribeError means the local subscription was removed but the
// remote record for Endpoint could not be deleted.
type PartialUnsubscribeError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *PartialUnsubscribeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("unsubscribed locally, but the server kept %s (HTTP %d): %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("unsubscribed locally, but the server kept %s: %v", e.Endpoint, e.Err)
}

func (e *PartialUnsubscribeError) Unwrap() error { return e.Err }

// remoteDetail extracts the remote status and message from err, if any.
func remoteDetail(err error) (int, string) {
	var se *netx.StatusError
	if errors.As(err, &se) {
		return se.Status, se.Message
	}
	return 0, ""
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
