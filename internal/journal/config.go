package journal

import (
	"fmt"
	"time"
)

const (
	defaultQueueSize  = 4096
	defaultBufferSize = 64 * 1024
)

// Config controls journal writer behavior. Header, when set, is written as
// the first line of every newly created file.
type Config struct {
	Path          string
	Header        string
	QueueSize     int
	BufferSize    int
	MaxBytes      int64
	FlushInterval time.Duration
	SyncInterval  time.Duration
}

// DefaultConfig returns a baseline configuration for the journal writer.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		QueueSize:  defaultQueueSize,
		BufferSize: defaultBufferSize,
	}
}

func (c Config) withDefaults() Config {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("invalid journal config: Path is empty")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("invalid journal config: QueueSize must be > 0")
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid journal config: BufferSize must be > 0")
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("invalid journal config: MaxBytes must be >= 0")
	}
	if c.FlushInterval < 0 {
		return fmt.Errorf("invalid journal config: FlushInterval must be >= 0")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("invalid journal config: SyncInterval must be >= 0")
	}
	return nil
}
