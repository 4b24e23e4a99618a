package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_OverridesDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{
		"testbin",
		"-d", "postgres://flag:flag@db:5432/asetate",
		"-q", "30",
		"-i", "120",
		"-t", "5",
		"-r", "2",
		"-n", "25",
		"-b", "exports",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "postgres://flag:flag@db:5432/asetate", cfg.DatabaseDSN)
	assert.Equal(t, 30, cfg.RateLimitQuota)
	assert.Equal(t, 2*time.Minute, cfg.RateLimitPeriod)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "exports", cfg.BackupDir)
}

func Test_parseFlags_IgnoresUnknownArgs(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "sync", "-q", "10"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, 10, cfg.RateLimitQuota)
}
