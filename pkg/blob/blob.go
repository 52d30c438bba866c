// Package blob stores file-area payloads behind the Store interface.
// The database keeps file metadata; the blob store keeps the bytes
// under an opaque key. Four backends: local filesystem (default),
// in-memory, S3 and embedded Badger.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors shared by all backends.
var (
	ErrNotFound = errors.New("blob not found")
	ErrClosed   = errors.New("blob store is closed")
)

// Store is the payload storage consumed by the files screens. Keys are
// opaque strings chosen by the caller; all methods are safe for
// concurrent use.
type Store interface {
	// Put stores the payload under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the payload for key, ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the payload. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Driver names a blob backend.
type Driver string

const (
	DriverFS     Driver = "fs"
	DriverMemory Driver = "memory"
	DriverS3     Driver = "s3"
	DriverBadger Driver = "badger"
)

// S3Config configures the S3 backend.
type S3Config struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket"`
	Region         string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Config selects and configures a backend.
type Config struct {
	Driver Driver       `mapstructure:"driver" yaml:"driver"`
	Path   string       `mapstructure:"path" yaml:"path,omitempty"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3,omitempty"`
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger,omitempty"`
}

// ApplyDefaults fills in missing configuration.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverFS
	}

	if c.Driver == DriverFS && c.Path == "" {
		dataDir := os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			homeDir, _ := os.UserHomeDir()
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
		c.Path = filepath.Join(dataDir, "hobbs", "blobs")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverFS:
		if c.Path == "" {
			return fmt.Errorf("fs path is required")
		}
	case DriverMemory:
	case DriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
	case DriverBadger:
		if c.Badger.Path == "" {
			return fmt.Errorf("badger path is required")
		}
	default:
		return fmt.Errorf("unsupported blob driver: %s", c.Driver)
	}
	return nil
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	cfg.ApplyDefaults()

	switch cfg.Driver {
	case DriverFS:
		return NewFS(cfg.Path)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverBadger:
		return NewBadger(cfg.Badger)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}
