package server

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/example/easyfs/pkg/bcache"
)

// EnvPrefix is the prefix of every environment variable the server reads.
const EnvPrefix = "EFS"

// Config contains the file server configuration
type Config struct {
	// Network address to listen on (e.g. ":7070")
	ListenAddress string `envconfig:"LISTEN_ADDRESS" yaml:"listenAddress"`

	// Path of the easy-fs image to serve
	ImagePath string `envconfig:"IMAGE_PATH" yaml:"imagePath"`

	// Number of blocks the block cache holds
	CacheBlocks int `envconfig:"CACHE_BLOCKS" yaml:"cacheBlocks"`

	// Maximum concurrent requests
	MaxConcurrent int `envconfig:"MAX_CONCURRENT" yaml:"maxConcurrent"`

	// Maximum open connections, 0 for no limit
	MaxConnections int `envconfig:"MAX_CONNECTIONS" yaml:"maxConnections"`

	// Maximum read size in bytes
	MaxReadSize int `envconfig:"MAX_READ_SIZE" yaml:"maxReadSize"`

	// Maximum write size in bytes
	MaxWriteSize int `envconfig:"MAX_WRITE_SIZE" yaml:"maxWriteSize"`

	// How long a request may wait for a worker
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" yaml:"requestTimeout"`

	// Idle sessions are closed after this long
	SessionTTL time.Duration `envconfig:"SESSION_TTL" yaml:"sessionTTL"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:  ":7070",
		ImagePath:      "fs.img",
		CacheBlocks:    16,
		MaxConcurrent:  100,
		MaxConnections: 0,
		MaxReadSize:    1024 * 1024, // 1MB
		MaxWriteSize:   1024 * 1024, // 1MB
		RequestTimeout: 30 * time.Second,
		SessionTTL:     10 * time.Minute,
	}
}

// LoadConfig starts from DefaultConfig, applies the yaml file at path if
// there is one, then any EFS_* environment variables.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return c, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.ListenAddress == "" {
			return "listenAddress", "LISTEN_ADDRESS"
		}
		if c.CacheBlocks < bcache.MinCapacity {
			return "cacheBlocks", "CACHE_BLOCKS"
		}
		if c.MaxConcurrent <= 0 {
			return "maxConcurrent", "MAX_CONCURRENT"
		}
		if c.MaxConnections < 0 {
			return "maxConnections", "MAX_CONNECTIONS"
		}
		if c.MaxReadSize <= 0 {
			return "maxReadSize", "MAX_READ_SIZE"
		}
		if c.MaxWriteSize <= 0 {
			return "maxWriteSize", "MAX_WRITE_SIZE"
		}
		if c.RequestTimeout <= 0 {
			return "requestTimeout", "REQUEST_TIMEOUT"
		}
		if c.SessionTTL <= 0 {
			return "sessionTTL", "SESSION_TTL"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf("invalid configuration: %s / %s_%s", y, EnvPrefix, e)
	}
	return nil
}
