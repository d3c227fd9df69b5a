// Package config loads runtime configuration for the storyshelf CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. STORYSHELF_* environment variables, e.g. STORYSHELF_API_BASE_URL.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. Keys that are absent keep their earlier value:
//
//	{
//	  "api_base_url": "https://story-api.dicoding.dev/v1",
//	  "database_path": "storyshelf.db",
//	  "asset_bucket": "s3://storyshelf-shell/v1",
//	  "push_listen_addr": "127.0.0.1:8787",
//	  "online_check_interval": "3s"
//	}
package config
