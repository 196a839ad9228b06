package config

import (
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"gopkg.in/yaml.v3"
)

type Pool struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Enabled     bool   `yaml:"enabled"`
}

type Destination struct {
	Host string `yaml:"host"`
	Path string `yaml:"path"`
}

type Tool struct {
	Command   string   `yaml:"command,omitempty"`
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

type Config struct {
	LogDir       string      `yaml:"log_dir"`
	Destination  Destination `yaml:"destination"`
	Tool         Tool        `yaml:"tool,omitempty"`
	PauseSeconds int         `yaml:"pause_seconds,omitempty"`
	Pools        []Pool      `yaml:"pools"`
	S3           S3Config    `yaml:"s3,omitempty"`
}

type S3Config struct {
	Enabled      bool               `yaml:"enabled"`
	Bucket       string             `yaml:"bucket"`
	Prefix       string             `yaml:"prefix"`
	Region       string             `yaml:"region"`
	Endpoint     string             `yaml:"endpoint"`
	StorageClass types.StorageClass `yaml:"storage_class"`
	Retry        struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"retry,omitempty"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.LogDir == "" {
		return fmt.Errorf("log_dir is required")
	}
	if c.Destination.Path == "" {
		return fmt.Errorf("destination.path is required")
	}
	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}
	for i, p := range c.Pools {
		if p.Name == "" {
			return fmt.Errorf("pools[%d].name is required", i)
		}
	}
	if c.PauseSeconds < 0 {
		return fmt.Errorf("pause_seconds must be non-negative")
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("s3.region is required when s3 is enabled")
		}
	}
	return nil
}

func (c *Config) FindPool(name string) (*Pool, error) {
	for _, p := range c.Pools {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("pool not found in config: %s", name)
}

// ToolCommand returns the external replication command, defaulting to
// zfs-autobackup when the config does not override it.
func (c *Config) ToolCommand() string {
	if c.Tool.Command != "" {
		return c.Tool.Command
	}
	return "zfs-autobackup"
}

// PauseDuration is the delay inserted between successive pools so the
// destination side is not hit with back-to-back replication streams.
func (c *Config) PauseDuration() time.Duration {
	if c.PauseSeconds > 0 {
		return time.Duration(c.PauseSeconds) * time.Second
	}
	return 5 * time.Second
}

func (c *Config) S3RetryAttempts() int {
	if c.S3.Retry.MaxAttempts > 0 {
		return c.S3.Retry.MaxAttempts
	}
	return 3
}
