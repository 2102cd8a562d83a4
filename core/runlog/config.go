package runlog

import "fmt"

// Backends supported by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config defines settings for run history storage and rotation.
type Config struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendJSONL, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("unknown run log backend %s", c.Backend)
	}
	if c.Backend != BackendNone && c.Path == "" {
		return fmt.Errorf("run log path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("run log rotation settings must be non-negative")
	}
	return nil
}

// Open creates the store selected by cfg. The "none" backend returns nil.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendJSONL:
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown run log backend %s", cfg.Backend)
	}
}
