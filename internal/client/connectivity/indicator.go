package connectivity

import (
	"fmt"
	"io"
	"sync"
)

const (
	BackOnlineMessage = "You are back online!"
	OfflineMessage    = "You are offline. Some features may not work."
)

// Fallback kinds for network-dependent screens.
const (
	FallbackStories = "stories"
	FallbackLogin   = "login"
	FallbackGeneral = "general"
)

var fallbacks = map[string]string{
	FallbackStories: "You are offline. Stories cannot be loaded right now; your bookmarks are still available.",
	FallbackLogin:   "You are offline. Login and registration need a connection; please try again once you are back online.",
	FallbackGeneral: "You are offline. This action needs a connection.",
}

// Fallback returns the fixed offline message for kind. Unknown kinds get
// the general message.
func Fallback(kind string) string {
	if msg, ok := fallbacks[kind]; ok {
		return msg
	}
	return fallbacks[FallbackGeneral]
}

// Indicator is the persistent online/offline marker plus transition toasts.
// Attach it with Monitor.Observe(ind.Update).
type Indicator struct {
	mu     sync.Mutex
	w      io.Writer
	online bool
}

func NewIndicator(w io.Writer, online bool) *Indicator {
	return &Indicator{w: w, online: online}
}

// Label is the text shown in the prompt.
func (i *Indicator) Label() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.online {
		return "online"
	}
	return "offline"
}

func (i *Indicator) Update(online bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.online = online
	if online {
		fmt.Fprintln(i.w, BackOnlineMessage)
	} else {
		fmt.Fprintln(i.w, OfflineMessage)
	}
}
