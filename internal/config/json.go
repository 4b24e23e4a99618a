package config

import (
	"encoding/json"
	"os"

	"github.com/asetate/asetate/internal/flagx"
	"github.com/asetate/asetate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	DiscogsBaseURL    string         `json:"discogs_base_url"`
	RateLimitQuota    int            `json:"rate_limit_quota"`
	RateLimitPeriod   timex.Duration `json:"rate_limit_period"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	MaxRetries        int            `json:"max_retries"`
	PageSize          int            `json:"page_size"`
	FetchTrackDetails *bool          `json:"fetch_track_details"`
	BackupDir         string         `json:"backup_dir"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. Zero values in the file leave the current
// Config values untouched, so the file may specify only a subset of fields.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != "" {
		config.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SecretKey != "" {
		config.SecretKey = jc.SecretKey
	}
	if jc.DiscogsBaseURL != "" {
		config.DiscogsBaseURL = jc.DiscogsBaseURL
	}
	if jc.RateLimitQuota != 0 {
		config.RateLimitQuota = jc.RateLimitQuota
	}
	if jc.RateLimitPeriod.Duration != 0 {
		config.RateLimitPeriod = jc.RateLimitPeriod.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		config.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.MaxRetries != 0 {
		config.MaxRetries = jc.MaxRetries
	}
	if jc.PageSize != 0 {
		config.PageSize = jc.PageSize
	}
	if jc.FetchTrackDetails != nil {
		config.FetchTrackDetails = *jc.FetchTrackDetails
	}
	if jc.BackupDir != "" {
		config.BackupDir = jc.BackupDir
	}
	if jc.S3RootUser != "" {
		config.S3RootUser = jc.S3RootUser
	}
	if jc.S3RootPassword != "" {
		config.S3RootPassword = jc.S3RootPassword
	}
	if jc.S3Bucket != "" {
		config.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		config.S3Region = jc.S3Region
	}
	if jc.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = jc.S3BaseEndpoint
	}
}
