package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, DriverSQLite, c.DatabaseDriver)
	assert.Equal(t, "tracks.db", c.DatabaseDSN)
	assert.Equal(t, 4, c.MatchWorkers)
	assert.Equal(t, 0.5, c.MinScore)
	assert.Equal(t, 10*time.Second, c.MatchTimeout)
	assert.Nil(t, c.Weights)
	assert.Empty(t, c.S3Bucket, "archiving is off by default")
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 10*time.Second, cfg.MatchTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		isErr   error
	}{
		{name: "postgres ok", mutate: func(c *Config) { c.DatabaseDriver = DriverPostgres }},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: true, isErr: common.ErrUnknownDriver},
		{name: "no workers", mutate: func(c *Config) { c.MatchWorkers = 0 }, wantErr: true},
		{name: "score too high", mutate: func(c *Config) { c.MinScore = 1.5 }, wantErr: true},
		{name: "zero weight ok", mutate: func(c *Config) { c.Weights = map[string]float64{"title": 0} }},
		{name: "negative weight", mutate: func(c *Config) { c.Weights = map[string]float64{"title": -5} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.isErr != nil {
				require.ErrorIs(t, err, tt.isErr)
			}
		})
	}
}
