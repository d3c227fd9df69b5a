package models

import (
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// PushSubscription is the device-level push registration. Keys holds the
// public material shared with the remote authority; PrivateKey and
// AuthSecret never leave the device.
type PushSubscription struct {
	Endpoint             string
	Keys                 webpush.Keys
	PrivateKey           []byte
	AuthSecret           []byte
	ApplicationServerKey string
	CreatedAt            time.Time
}

// Wire returns the subscription material in the shape the remote authority
// accepts: {endpoint, keys: {p256dh, auth}}.
func (s *PushSubscription) Wire() *webpush.Subscription {
	return &webpush.Subscription{Endpoint: s.Endpoint, Keys: s.Keys}
}
