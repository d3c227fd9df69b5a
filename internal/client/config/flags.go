package config

import (
	"flag"
	"os"
	"time"

	"github.com/storyshelf/storyshelf/internal/flagx"
)

var knownFlags = []string{"-api", "-db", "-cache", "-origin", "-bucket", "-listen", "-i", "-log"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-api string     story API base URL
//	-db string      SQLite database path
//	-cache string   asset cache directory
//	-origin string  origin the shell assets are fetched from
//	-bucket string  s3://bucket/prefix asset origin
//	-listen string  host:port of the local receiver
//	-i int          online check interval (in seconds)
//	-log string     log level
//
// os.Args is filtered with flagx.FilterArgs first, so flags meant for other
// layers (-c/-config) do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "story API base URL")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.CacheDir, "cache", cfg.CacheDir, "asset cache directory")
	fs.StringVar(&cfg.AppOrigin, "origin", cfg.AppOrigin, "origin the shell assets are fetched from")
	fs.StringVar(&cfg.AssetBucket, "bucket", cfg.AssetBucket, "s3://bucket/prefix asset origin")
	fs.StringVar(&cfg.PushListenAddr, "listen", cfg.PushListenAddr, "address of the local push receiver")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level (debug, info, warn, error)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
