package config

import (
	"flag"
	"os"
	"time"

	"github.com/asetate/asetate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-s string   application secret key
//	-a string   Discogs API base URL
//	-q int      rate-limit quota (requests per period)
//	-i int      rate-limit period, seconds
//	-t int      HTTP request timeout, seconds
//	-r int      retry budget for retryable failures
//	-n int      collection page size
//	-b string   local backup directory
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with subcommand arguments.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-a", "-q", "-i", "-t", "-r", "-n", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.DiscogsBaseURL, "a", config.DiscogsBaseURL, "discogs API base URL")
	fs.IntVar(&config.RateLimitQuota, "q", config.RateLimitQuota, "rate limit quota (requests per period)")

	ratePeriod := fs.Int("i", int(config.RateLimitPeriod.Seconds()), "rate limit period (in seconds)")
	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	fs.IntVar(&config.MaxRetries, "r", config.MaxRetries, "retry budget for retryable failures")
	fs.IntVar(&config.PageSize, "n", config.PageSize, "collection page size")
	fs.StringVar(&config.BackupDir, "b", config.BackupDir, "backup directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RateLimitPeriod = time.Duration(*ratePeriod) * time.Second
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
