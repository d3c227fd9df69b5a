package cli

import (
	"context"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/assets"
	"github.com/storyshelf/storyshelf/internal/client/connectivity"
)

// Install registers the worker and makes sure the current asset generation
// is cached and active.
func (a *App) Install(ctx context.Context) error {
	if err := a.shell.Register(ctx); err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	if err := a.shell.Ensure(ctx); err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	st, err := a.shell.Status(ctx)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	fmt.Fprintf(a.out, "App shell %s is installed and active.\n", st.Version)
	return nil
}

// Status prints connectivity, session, notification and cache state.
func (a *App) Status(ctx context.Context) error {
	conn := "online"
	if !a.network.CheckOnlineStatus() {
		conn = "offline"
	}
	fmt.Fprintf(a.out, "Connection:    %s\n", conn)

	user := "not logged in"
	if a.userName != "" {
		user = a.userName
	}
	fmt.Fprintf(a.out, "User:          %s\n", user)

	if st, err := a.push.State(ctx); err == nil {
		fmt.Fprintf(a.out, "Notifications: %s\n", st)
	}

	ws, err := a.shell.Status(ctx)
	switch {
	case err != nil:
		fmt.Fprintln(a.out, "App shell:     not registered")
	case ws.Active:
		fmt.Fprintf(a.out, "App shell:     %s active\n", ws.Version)
	case ws.Installed:
		fmt.Fprintf(a.out, "App shell:     %s installed, waiting to activate\n", ws.Version)
	default:
		fmt.Fprintln(a.out, "App shell:     not installed")
	}
	if err == nil {
		fmt.Fprintf(a.out, "Sessions:      %d open, %d controlled\n", ws.Clients, ws.Controlled)
	}
	return nil
}

// OpenNotification acts on the last notification the way a click does: the
// app opens on its entry document, from the offline copy if need be.
func (a *App) OpenNotification(ctx context.Context) error {
	a.mu.Lock()
	n := a.last
	a.mu.Unlock()
	if n == nil {
		fmt.Fprintln(a.out, "No notification to open.")
		return nil
	}

	resp, err := a.shell.Click(ctx, *n)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	defer resp.Body.Close()

	a.mu.Lock()
	if a.last == n {
		a.last = nil
	}
	a.mu.Unlock()

	where := "/"
	if resp.Request != nil {
		where = resp.Request.URL.String()
	}
	source := "live"
	if resp.Header.Get(assets.CacheHeader) != "" {
		source = "offline copy"
	}
	fmt.Fprintf(a.out, "Opened %s (%s, HTTP %d)\n", where, source, resp.StatusCode)
	return nil
}
