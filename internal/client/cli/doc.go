// Package cli provides the interactive storyshelf command-line client.
//
// It sits on top of the runtime built by package app: services for the
// session, stories, bookmarks and push notifications, the background worker
// that keeps the app shell available offline, and the connectivity monitor
// whose transitions are shown as toasts.
//
// Commands:
//   - register / login / logout
//   - stories [page], bookmark <id>, unbookmark <id>, bookmarks
//   - subscribe / unsubscribe / push-status
//   - install, status
//
// Offline, network-dependent commands print a fixed fallback message
// instead of an error; bookmarks keep working.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
