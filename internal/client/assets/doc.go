// Package assets keeps the application shell available offline.
//
// A Worker owns a versioned cache of the essential assets (entry document,
// manifest, icons). Its lifecycle mirrors a browser service worker:
//
//   - Install fetches every essential asset and commits them as one
//     generation named after the worker version. Any failure discards the
//     whole attempt; the previous generation stays authoritative.
//   - Activate deletes every generation except the current one and takes
//     control of all attached clients.
//   - Fetch applies the interception Policy: only top-level navigations are
//     handled, falling back to the cached entry document when the network
//     fails. Everything else goes to the network untouched.
//
// The worker runs in its own goroutine. Callers talk to it through
// messages, never through shared state.
package assets
