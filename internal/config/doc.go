// Package config loads runtime configuration for the trackmeta CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   database driver: sqlite or pgx
//	-dsn string database data source name
//	-l string   log level: debug, info, warn, error
//	-w int      number of concurrent match workers
//	-s float    minimum score for a candidate to be reported
//	-t int      match timeout (seconds)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "5s" or
// integer nanoseconds. Weights override comparator weights by tag name
// ("~length" for the duration) and must not be negative. Archiving stays
// off unless s3_bucket is set:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "tracks.db",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "match_workers": 4,
//	  "min_score": 0.5,
//	  "match_timeout": "10s",
//	  "weights": {"title": 22, "~length": 8},
//	  "s3_bucket": "tracks",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000/",
//	  "s3_access_key": "admin",
//	  "s3_secret_key": "secretpassword"
//	}
package config
