package storage

import "fmt"

// DefaultDir is where persisted slices land when no directory is configured.
const DefaultDir = "./data"

// Config configures the file-backed persistence backend.
type Config struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("persist.dir is required")
	}
	return nil
}
