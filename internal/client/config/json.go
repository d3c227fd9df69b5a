package config

import (
	"encoding/json"
	"os"

	"github.com/storyshelf/storyshelf/internal/flagx"
	"github.com/storyshelf/storyshelf/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from an empty one, so a partial file only
// overrides what it names.
type JsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	DatabasePath        *string         `json:"database_path"`
	CacheDir            *string         `json:"cache_dir"`
	CacheVersion        *string         `json:"cache_version"`
	AppOrigin           *string         `json:"app_origin"`
	AssetBucket         *string         `json:"asset_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3Endpoint          *string         `json:"s3_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	VAPIDPublicKey      *string         `json:"vapid_public_key"`
	PushListenAddr      *string         `json:"push_listen_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.APIBaseURL, jc.APIBaseURL)
	set(&cfg.DatabasePath, jc.DatabasePath)
	set(&cfg.CacheDir, jc.CacheDir)
	set(&cfg.CacheVersion, jc.CacheVersion)
	set(&cfg.AppOrigin, jc.AppOrigin)
	set(&cfg.AssetBucket, jc.AssetBucket)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3Endpoint, jc.S3Endpoint)
	set(&cfg.S3AccessKey, jc.S3AccessKey)
	set(&cfg.S3SecretKey, jc.S3SecretKey)
	set(&cfg.VAPIDPublicKey, jc.VAPIDPublicKey)
	set(&cfg.PushListenAddr, jc.PushListenAddr)
	set(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
