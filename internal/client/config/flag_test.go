package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-api", "http://127.0.0.1:3000/v1", "-db", "x.db", "-cache", "c",
				"-origin", "http://127.0.0.1:9000", "-bucket", "s3://b/p", "-listen", ":9999", "-i", "10", "-log", "debug"},
			expected: &Config{
				APIBaseURL:          "http://127.0.0.1:3000/v1",
				DatabasePath:        "x.db",
				CacheDir:            "c",
				AppOrigin:           "http://127.0.0.1:9000",
				AssetBucket:         "s3://b/p",
				PushListenAddr:      ":9999",
				OnlineCheckInterval: 10 * time.Second,
				LogLevel:            "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-i", "5"},
			expected: &Config{OnlineCheckInterval: 5 * time.Second},
		},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
