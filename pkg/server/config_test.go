package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "efs.yaml")
	yamlData := `
listenAddress: "127.0.0.1:9000"
imagePath: /var/lib/efs/fs.img
cacheBlocks: 64
sessionTTL: 90s
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("EFS_MAX_CONCURRENT", "8")
	t.Setenv("EFS_CACHE_BLOCKS", "32")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := DefaultConfig()
	want.ListenAddress = "127.0.0.1:9000"
	want.ImagePath = "/var/lib/efs/fs.img"
	want.CacheBlocks = 32
	want.MaxConcurrent = 8
	want.SessionTTL = 90 * time.Second
	if diff := pretty.Compare(config, want); diff != "" {
		t.Errorf("Config mismatch (-got +want):\n%s", diff)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if diff := pretty.Compare(config, DefaultConfig()); diff != "" {
		t.Errorf("Config mismatch (-got +want):\n%s", diff)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "efs.yaml")
	os.WriteFile(path, []byte("rootSquash: true\n"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for an unknown key")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		errKey string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no address", func(c *Config) { c.ListenAddress = "" }, "EFS_LISTEN_ADDRESS"},
		{"no cache", func(c *Config) { c.CacheBlocks = 0 }, "EFS_CACHE_BLOCKS"},
		{"cache too small", func(c *Config) { c.CacheBlocks = 3 }, "EFS_CACHE_BLOCKS"},
		{"smallest cache", func(c *Config) { c.CacheBlocks = 4 }, ""},
		{"negative connections", func(c *Config) { c.MaxConnections = -1 }, "EFS_MAX_CONNECTIONS"},
		{"no ttl", func(c *Config) { c.SessionTTL = 0 }, "EFS_SESSION_TTL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.modify(c)
			err := c.Validate()
			if tc.errKey == "" {
				if err != nil {
					t.Errorf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errKey) {
				t.Errorf("Validate: got %v, want an error naming %s", err, tc.errKey)
			}
		})
	}
}
