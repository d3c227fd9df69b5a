// Package client talks to the remote story authority over HTTP/JSON.
//
// # Overview
//
// Client is the transport-agnostic contract used by the services; HTTPClient
// implements it against the story API (default base
// https://story-api.dicoding.dev/v1). Push registration follows one endpoint
// contract: POST {base}/notifications/subscribe with
// {endpoint, keys: {p256dh, auth}} and DELETE on the same path with
// {endpoint}.
//
// # Error Handling
//
// Transport failures are wrapped with ErrUnavailable. Rejections carry a
// *netx.StatusError with the remote status and message; 401 responses also
// match ErrUnauthorized.
package client
