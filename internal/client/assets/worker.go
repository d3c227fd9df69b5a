package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/storyshelf/storyshelf/internal/logging"
)

// DefaultAssets is the essential asset list needed to boot the shell.
var DefaultAssets = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/icon-192x192.png",
	"/badge-72x72.png",
}

const (
	notificationTitle = "Dicoding Story"
	defaultBody       = "New story added!"
	notificationIcon  = "/icon-192x192.png"
	notificationBadge = "/badge-72x72.png"
	entryDocument     = "/"
)

// Notification is what the worker shows for an incoming push message.
type Notification struct {
	Title     string
	Body      string
	Icon      string
	Badge     string
	Vibrate   []int
	ArrivedAt time.Time
}

// Status is a snapshot of the worker lifecycle.
type Status struct {
	Version    string
	Installed  bool
	Active     bool
	Clients    int
	Controlled int
}

type Options struct {
	Version string
	// Scope is the origin the worker controls, e.g. http://127.0.0.1:8787.
	Scope   string
	Assets  []string
	Storage Storage
	Origin  Origin
	Policy  Policy
	// Network performs requests the worker does not answer from cache.
	Network *http.Client
	Log     logging.Logger
}

// Worker runs the cache lifecycle in its own goroutine. Install and
// Activate are processed one at a time in arrival order; network I/O for
// fetches happens on the caller's goroutine.
type Worker struct {
	opts    Options
	log     logging.Logger
	now     func() time.Time
	events  chan any
	done    chan struct{}
	running atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once

	obsMu     sync.Mutex
	observers map[uint64]func(Notification)
	nextObs   uint64
}

// loop-owned state
type workerState struct {
	installed bool
	active    bool
	clients   map[string]bool
}

type (
	installEvent struct {
		ctx   context.Context
		reply chan error
	}
	activateEvent struct {
		ctx   context.Context
		reply chan error
	}
	fetchEvent struct {
		decision Decision
		reply    chan string
	}
	pushEvent   struct{ payload []byte }
	attachEvent struct{ reply chan string }
	detachEvent struct{ id string }
	statusEvent struct{ reply chan Status }
)

func NewWorker(opts Options) *Worker {
	if len(opts.Assets) == 0 {
		opts.Assets = DefaultAssets
	}
	if opts.Network == nil {
		opts.Network = http.DefaultClient
	}
	opts.Scope = strings.TrimRight(opts.Scope, "/")
	return &Worker{
		opts:      opts,
		log:       logging.OrNop(opts.Log).With("component", "worker", "generation", opts.Version),
		now:       time.Now,
		events:    make(chan any),
		done:      make(chan struct{}),
		observers: map[uint64]func(Notification){},
	}
}

// Register starts the worker goroutine. Repeated calls are no-ops.
//
// A generation installed by an earlier run is activated again before the
// goroutine starts, so it keeps answering navigations across restarts.
func (w *Worker) Register(ctx context.Context) error {
	select {
	case <-w.done:
		return ErrWorkerStopped
	default:
	}
	w.startOnce.Do(func() {
		st := &workerState{clients: map[string]bool{}}
		ok, err := w.opts.Storage.Has(ctx, w.opts.Version)
		if err != nil {
			w.log.Warn(ctx, "could not inspect cache storage", "error", err)
		}
		st.installed = ok
		if ok {
			if err := w.activate(ctx, st); err != nil {
				w.log.Warn(ctx, "resumed generation with leftovers", "error", err)
			}
		}
		w.running.Store(true)
		go w.loop(st)
		w.log.Info(ctx, "worker registered", "installed", st.installed, "active", st.active)
	})
	return nil
}

// Stop terminates the worker goroutine.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Worker) loop(st *workerState) {
	defer w.running.Store(false)
	for {
		select {
		case <-w.done:
			return
		case ev := <-w.events:
			w.handle(st, ev)
		}
	}
}

func (w *Worker) handle(st *workerState, ev any) {
	ctx := context.Background()
	switch e := ev.(type) {
	case installEvent:
		e.reply <- w.install(e.ctx, st)
	case activateEvent:
		e.reply <- w.activate(e.ctx, st)
	case fetchEvent:
		gen := ""
		if e.decision == Navigate && st.active {
			gen = w.opts.Version
		}
		e.reply <- gen
	case pushEvent:
		w.notify(ctx, w.present(e.payload))
	case attachEvent:
		id := uuid.NewString()
		st.clients[id] = st.active
		e.reply <- id
	case detachEvent:
		delete(st.clients, e.id)
	case statusEvent:
		s := Status{Version: w.opts.Version, Installed: st.installed, Active: st.active, Clients: len(st.clients)}
		for _, controlled := range st.clients {
			if controlled {
				s.Controlled++
			}
		}
		e.reply <- s
	}
}

// send delivers ev to the worker goroutine.
func (w *Worker) send(ctx context.Context, ev any) error {
	if !w.running.Load() {
		return ErrNotRegistered
	}
	select {
	case w.events <- ev:
		return nil
	case <-w.done:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, w *Worker, ch chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-w.done:
		return zero, ErrWorkerStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Install populates the current generation. On failure nothing is
// committed and the error wraps ErrInstallFailed.
func (w *Worker) Install(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := w.send(ctx, installEvent{ctx: ctx, reply: reply}); err != nil {
		return err
	}
	res, err := await(ctx, w, reply)
	if err != nil {
		return err
	}
	return res
}

// Activate purges every other generation and claims all clients. Purge
// failures are reported but do not undo activation.
func (w *Worker) Activate(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := w.send(ctx, activateEvent{ctx: ctx, reply: reply}); err != nil {
		return err
	}
	res, err := await(ctx, w, reply)
	if err != nil {
		return err
	}
	return res
}

// Ensure installs and activates the current generation as needed.
func (w *Worker) Ensure(ctx context.Context) error {
	st, err := w.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Installed {
		if err := w.Install(ctx); err != nil {
			return err
		}
	}
	if !st.Active {
		return w.Activate(ctx)
	}
	return nil
}

func (w *Worker) install(ctx context.Context, st *workerState) error {
	entries := make([]Entry, len(w.opts.Assets))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range w.opts.Assets {
		g.Go(func() error {
			e, err := w.opts.Origin.Fetch(gctx, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			entries[i] = *e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.log.Error(ctx, "install failed", "error", err)
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	if err := w.opts.Storage.Put(ctx, w.opts.Version, entries); err != nil {
		w.log.Error(ctx, "install failed", "error", err)
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	st.installed = true
	w.log.Info(ctx, "generation installed", "assets", len(entries))
	return nil
}

func (w *Worker) activate(ctx context.Context, st *workerState) error {
	if !st.installed {
		return ErrNotInstalled
	}

	names, err := w.opts.Storage.Names(ctx)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	var merr *multierror.Error
	for _, name := range names {
		if name == w.opts.Version {
			continue
		}
		if _, err := w.opts.Storage.Delete(ctx, name); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		w.log.Info(ctx, "stale generation purged", "stale", name)
	}

	st.active = true
	for id := range st.clients {
		st.clients[id] = true
	}
	w.log.Info(ctx, "generation activated", "clients", len(st.clients))
	return merr.ErrorOrNil()
}

// Fetch answers req according to the policy. req must be an outgoing
// request with an absolute URL.
func (w *Worker) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	decision := w.opts.Policy.Decide(req)

	gen := ""
	if decision == Navigate {
		var err error
		gen, err = w.fallbackGeneration(ctx, decision)
		if err != nil && !errors.Is(err, ErrNotRegistered) && !errors.Is(err, ErrWorkerStopped) {
			return nil, err
		}
	}

	resp, err := w.opts.Network.Do(req.WithContext(ctx))
	if err == nil || gen == "" {
		return resp, err
	}

	e, cerr := w.opts.Storage.Match(ctx, gen, entryDocument)
	if cerr != nil {
		w.log.Warn(ctx, "navigation fallback unavailable", "url", req.URL.String(), "error", cerr)
		return nil, errors.Join(err, cerr)
	}
	w.log.Debug(ctx, "navigation served from cache", "url", req.URL.String())
	return e.Response(req), nil
}

// fallbackGeneration asks the worker which generation may answer a failed
// request. Empty means none: the worker is not active yet.
func (w *Worker) fallbackGeneration(ctx context.Context, d Decision) (string, error) {
	reply := make(chan string, 1)
	if err := w.send(ctx, fetchEvent{decision: d, reply: reply}); err != nil {
		return "", err
	}
	return await(ctx, w, reply)
}

// Attach registers a client (an open window of the app) and returns its id.
func (w *Worker) Attach(ctx context.Context) (string, error) {
	reply := make(chan string, 1)
	if err := w.send(ctx, attachEvent{reply: reply}); err != nil {
		return "", err
	}
	return await(ctx, w, reply)
}

// Detach forgets a client returned by Attach.
func (w *Worker) Detach(ctx context.Context, id string) error {
	return w.send(ctx, detachEvent{id: id})
}

func (w *Worker) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := w.send(ctx, statusEvent{reply: reply}); err != nil {
		return Status{}, err
	}
	return await(ctx, w, reply)
}

// Push hands a decrypted push payload to the worker, which shows it as a
// notification to every observer.
func (w *Worker) Push(ctx context.Context, payload []byte) error {
	return w.send(ctx, pushEvent{payload: append([]byte(nil), payload...)})
}

func (w *Worker) present(payload []byte) Notification {
	body := string(payload)
	if body == "" {
		body = defaultBody
	}
	return Notification{
		Title:     notificationTitle,
		Body:      body,
		Icon:      notificationIcon,
		Badge:     notificationBadge,
		Vibrate:   []int{100, 50, 100},
		ArrivedAt: w.now(),
	}
}

// OnNotification registers fn for shown notifications. The returned
// function unregisters it.
func (w *Worker) OnNotification(fn func(Notification)) (cancel func()) {
	w.obsMu.Lock()
	id := w.nextObs
	w.nextObs++
	w.observers[id] = fn
	w.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.obsMu.Lock()
			delete(w.observers, id)
			w.obsMu.Unlock()
		})
	}
}

func (w *Worker) notify(ctx context.Context, n Notification) {
	w.obsMu.Lock()
	fns := make([]func(Notification), 0, len(w.observers))
	for _, fn := range w.observers {
		fns = append(fns, fn)
	}
	w.obsMu.Unlock()

	w.log.Info(ctx, "notification shown", "observers", len(fns))
	for _, fn := range fns {
		fn(n)
	}
}

// Click handles a notification click: the window opens on the entry
// document, loaded as a navigation.
func (w *Worker) Click(ctx context.Context, n Notification) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.opts.Scope+entryDocument, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Accept", "text/html")
	return w.Fetch(ctx, req)
}
