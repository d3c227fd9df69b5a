// Package app assembles the storyshelf client runtime: the single object
// that owns the database handle, the background worker, the push platform
// and the connectivity monitor, and hands them to the services.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/storyshelf/storyshelf/internal/client/assets"
	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/config"
	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/client/database"
	"github.com/storyshelf/storyshelf/internal/client/platform"
	"github.com/storyshelf/storyshelf/internal/client/services"
	"github.com/storyshelf/storyshelf/internal/logging"
)

const cacheSubdir = "generations"

// Options carries the collaborators that differ between the CLI and tests.
type Options struct {
	// Prompter answers the notification permission question. Nil denies.
	Prompter platform.Prompter
	// HTTPClient is used for the API, the asset origin and the network
	// behind the worker. Nil means a client with a 15s timeout.
	HTTPClient *http.Client
	Log        logging.Logger
}

// Runtime is the process-wide context. Open builds it; Close releases
// everything it started.
type Runtime struct {
	Config *config.Config
	Log    logging.Logger

	DB       *database.Handle
	API      *client.HTTPClient
	Monitor  *connectivity.Monitor
	Prober   *connectivity.Prober
	Worker   *assets.Worker
	Platform *platform.Platform

	Auth      services.AuthService
	Stories   services.StoryService
	Bookmarks services.BookmarkService
	Push      services.PushService

	// URL is where the local receiver and shell proxy listen.
	URL string

	server *http.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Open wires the runtime from cfg, registers the worker and starts the local
// HTTP server and the reachability prober. The database is opened lazily on first use.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	log := logging.OrNop(opts.Log)
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	origin, err := newOrigin(ctx, cfg, hc)
	if err != nil {
		return nil, err
	}
	storage, err := assets.NewFSStorage(cfg.CacheDir, cacheSubdir)
	if err != nil {
		return nil, fmt.Errorf("cache storage: %w", err)
	}
	policy, err := assets.NewPolicy(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch policy: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.PushListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.PushListenAddr, err)
	}
	url := "http://" + ln.Addr().String()

	rt := &Runtime{Config: cfg, Log: log, URL: url}
	rt.DB = database.NewHandle(cfg.DatabasePath, log)
	rt.API = client.NewHTTPClient(cfg.APIBaseURL, hc, log)
	rt.Monitor = connectivity.NewMonitor(true, log)
	rt.Prober = connectivity.NewProber(rt.Monitor, rt.API.Ping, cfg.OnlineCheckInterval, log)
	rt.Worker = assets.NewWorker(assets.Options{
		Version: cfg.CacheVersion,
		Scope:   url,
		Assets:  assets.DefaultAssets,
		Storage: storage,
		Origin:  origin,
		Policy:  policy,
		Network: hc,
		Log:     log,
	})
	// Registered up front so a generation installed by an earlier run
	// serves navigations and push messages reach observers right away.
	if err := rt.Worker.Register(ctx); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("register worker: %w", err)
	}
	rt.Platform = platform.New(rt.DB, rt.Worker, opts.Prompter, url, log)

	tokens := services.NewMetadataTokenSource(rt.DB)
	rt.Auth = services.NewAuthService(rt.API, rt.DB, rt.Monitor, log)
	rt.Stories = services.NewStoryService(rt.API, tokens, rt.Monitor)
	rt.Bookmarks = services.NewBookmarkService(rt.DB, rt.Stories, log)
	rt.Push = services.NewPushService(rt.API, rt.Platform, tokens, rt.DB, rt.Monitor, cfg.VAPIDPublicKey, log)

	mux := http.NewServeMux()
	mux.Handle("/push/", platform.NewReceiver(rt.DB, rt.Worker, url, log))
	mux.Handle("/", assets.NewHandler(rt.Worker, cfg.AppOrigin, log))
	rt.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt.cancel = cancel

	rt.wg.Add(2)
	go func() {
		defer rt.wg.Done()
		if err := rt.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(runCtx, "local server stopped", "error", err)
		}
	}()
	go func() {
		defer rt.wg.Done()
		rt.Prober.Run(runCtx)
	}()

	log.Info(ctx, "runtime ready", "listen", url, "api", cfg.APIBaseURL)
	return rt, nil
}

func newOrigin(ctx context.Context, cfg *config.Config, hc *http.Client) (assets.Origin, error) {
	if cfg.AssetBucket == "" {
		return assets.NewHTTPOrigin(cfg.AppOrigin, hc), nil
	}
	bucket, prefix, err := assets.ParseBucketURL(cfg.AssetBucket)
	if err != nil {
		return nil, err
	}
	return assets.NewS3Origin(ctx, assets.S3Config{
		Bucket:    bucket,
		Prefix:    prefix,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
}

// Close stops the prober, the local server and the worker, then closes the
// database. Calling it more than once is safe.
func (rt *Runtime) Close(ctx context.Context) error {
	var err error
	rt.once.Do(func() {
		rt.cancel()
		var merr *multierror.Error
		merr = multierror.Append(merr, rt.server.Shutdown(ctx))
		rt.wg.Wait()
		rt.Worker.Stop()
		merr = multierror.Append(merr, rt.DB.Close())
		err = merr.ErrorOrNil()
		rt.Log.Info(ctx, "runtime closed")
	})
	return err
}
