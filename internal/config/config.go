package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config holds runtime settings for the trackmeta CLI.
//
// Weights overrides comparator weights by tag name; an empty map keeps the
// defaults. Archiving is off unless S3Bucket is set; the other S3 fields
// only matter then.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string
	LogLevel       string
	LogFormat      string
	MatchWorkers   int
	MinScore       float64
	MatchTimeout   time.Duration
	Weights        map[string]float64
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible local defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = DriverSQLite
	c.DatabaseDSN = "tracks.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MatchWorkers = 4
	c.MinScore = 0.5
	c.MatchTimeout = 10 * time.Second
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownDriver, c.DatabaseDriver)
	}
	if c.MatchWorkers < 1 {
		return fmt.Errorf("match workers must be positive, got %d", c.MatchWorkers)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min score must be within [0, 1], got %v", c.MinScore)
	}
	for name, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("weight of %q must not be negative, got %v", name, w)
		}
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
