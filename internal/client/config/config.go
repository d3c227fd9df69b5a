package config

import "time"

// DefaultVAPIDPublicKey is the public key published in the story API
// documentation.
const DefaultVAPIDPublicKey = "BCCs2eonMI-6H2ctvFaNg-UYdDv387Vno_bzUzALpB442r21CnsHmtrx8biyPi_E-1fSGABK_Qs_GlvPoJJqxbk"

// Config holds runtime settings for the storyshelf CLI.
//
// Fields:
//   - APIBaseURL: base URL of the story API, including the version path.
//   - DatabasePath: SQLite file for bookmarks, session and push state.
//   - CacheDir, CacheVersion: where asset generations live and which one
//     the worker installs.
//   - AppOrigin: origin the shell assets are fetched from.
//   - AssetBucket: optional s3://bucket/prefix used instead of AppOrigin.
//   - VAPIDPublicKey: the server key; empty means ask the API.
//   - PushListenAddr: host:port of the local receiver and asset proxy.
//   - OnlineCheckInterval: how often reachability of the API is probed.
type Config struct {
	APIBaseURL   string `env:"API_BASE_URL"`
	DatabasePath string `env:"DATABASE_PATH"`

	CacheDir     string `env:"CACHE_DIR"`
	CacheVersion string `env:"CACHE_VERSION"`
	AppOrigin    string `env:"APP_ORIGIN"`
	AssetBucket  string `env:"ASSET_BUCKET"`
	S3Region     string `env:"S3_REGION"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`

	VAPIDPublicKey string `env:"VAPID_PUBLIC_KEY"`
	PushListenAddr string `env:"PUSH_LISTEN_ADDR"`

	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://story-api.dicoding.dev/v1"
	c.DatabasePath = "storyshelf.db"
	c.CacheDir = ".storyshelf-cache"
	c.CacheVersion = "storyshelf-v1"
	c.AppOrigin = "http://localhost:9000"
	c.S3Region = "us-east-1"
	c.VAPIDPublicKey = DefaultVAPIDPublicKey
	c.PushListenAddr = "127.0.0.1:8787"
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
