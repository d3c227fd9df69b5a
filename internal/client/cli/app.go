package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/storyshelf/storyshelf/internal/client/app"
	"github.com/storyshelf/storyshelf/internal/client/assets"
	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/client/services"
)

// shell is the part of the background worker the CLI drives.
type shell interface {
	Register(ctx context.Context) error
	Ensure(ctx context.Context) error
	Status(ctx context.Context) (assets.Status, error)
	OnNotification(fn func(assets.Notification)) (cancel func())
	Attach(ctx context.Context) (string, error)
	Detach(ctx context.Context, id string) error
	Click(ctx context.Context, n assets.Notification) (*http.Response, error)
}

// network is the connectivity monitor as seen by the CLI.
type network interface {
	CheckOnlineStatus() bool
	Observe(fn connectivity.Observer) (cancel func())
}

type App struct {
	auth      services.AuthService
	stories   services.StoryService
	bookmarks services.BookmarkService
	push      services.PushService
	shell     shell
	network   network
	indicator *connectivity.Indicator

	reader   *bufio.Reader
	out      io.Writer
	userName string
	now      func() time.Time

	mu   sync.Mutex
	last *assets.Notification
}

// NewApp builds the CLI over rt. reader is shared with the permission
// prompter so both consume the same buffered input.
func NewApp(rt *app.Runtime, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		auth:      rt.Auth,
		stories:   rt.Stories,
		bookmarks: rt.Bookmarks,
		push:      rt.Push,
		shell:     rt.Worker,
		network:   rt.Monitor,
		indicator: connectivity.NewIndicator(out, rt.Monitor.CheckOnlineStatus()),
		reader:    reader,
		out:       out,
		now:       time.Now,
	}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// Run shows the banner, restores the previous session and runs the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to storyshelf (type 'help' for commands)")

	if name, err := a.auth.CurrentUser(ctx); err == nil {
		a.userName = name
	}

	stopToasts := a.network.Observe(a.indicator.Update)
	defer stopToasts()
	stopNotifications := a.shell.OnNotification(a.showNotification)
	defer stopNotifications()

	// the session is one client of the worker for as long as it runs
	if id, err := a.shell.Attach(ctx); err == nil {
		defer func() { _ = a.shell.Detach(context.WithoutCancel(ctx), id) }()
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) showNotification(n assets.Notification) {
	a.mu.Lock()
	a.last = &n
	a.mu.Unlock()
	fmt.Fprintf(a.out, "\n[%s] %s (type 'open' to view)\n", n.Title, n.Body)
}
