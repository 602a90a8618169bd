package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/trackmeta/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-value fields left out of the file do not override earlier values.
type JsonConfig struct {
	DatabaseDriver string             `json:"database_driver"`
	DatabaseDSN    string             `json:"database_dsn"`
	LogLevel       string             `json:"log_level"`
	LogFormat      string             `json:"log_format"`
	MatchWorkers   int                `json:"match_workers"`
	MinScore       *float64           `json:"min_score"`
	MatchTimeout   *timex.Duration    `json:"match_timeout"`
	Weights        map[string]float64 `json:"weights"`
	S3Bucket       string             `json:"s3_bucket"`
	S3Region       string             `json:"s3_region"`
	S3BaseEndpoint string             `json:"s3_base_endpoint"`
	S3AccessKey    string             `json:"s3_access_key"`
	S3SecretKey    string             `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := jsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if jc.MatchWorkers != 0 {
		cfg.MatchWorkers = jc.MatchWorkers
	}
	if jc.MinScore != nil {
		cfg.MinScore = *jc.MinScore
	}
	if jc.MatchTimeout != nil {
		cfg.MatchTimeout = jc.MatchTimeout.Duration
	}
	if len(jc.Weights) > 0 {
		cfg.Weights = jc.Weights
	}
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
