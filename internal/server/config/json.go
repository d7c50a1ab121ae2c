package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/docutrack/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Only
// fields present in the file override earlier layers.
type JsonConfig struct {
	Env                string         `json:"env"`
	HTTPAddr           string         `json:"http_addr"`
	GRPCHealthAddr     string         `json:"grpc_health_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	TokenTTL           timex.Duration `json:"token_ttl"`
	CORSOrigins        []string       `json:"cors_origins"`
	MaxUploadSize      int64          `json:"max_upload_size"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	S3PublicURL        string         `json:"s3_public_url"`
	S3PresignDownloads *bool          `json:"s3_presign_downloads"`
	DownloadURLTTL     timex.Duration `json:"download_url_ttl"`
	RedisURL           string         `json:"redis_url"`
	LoginAttempts      int            `json:"login_attempts"`
	LoginWindow        timex.Duration `json:"login_window"`
}

func parseJson(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var c JsonConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return err
	}

	setStr(&cfg.Env, c.Env)
	setStr(&cfg.HTTPAddr, c.HTTPAddr)
	setStr(&cfg.GRPCHealthAddr, c.GRPCHealthAddr)
	setStr(&cfg.DatabaseDSN, c.DatabaseDSN)
	setStr(&cfg.SecretKey, c.SecretKey)
	setStr(&cfg.S3RootUser, c.S3RootUser)
	setStr(&cfg.S3RootPassword, c.S3RootPassword)
	setStr(&cfg.S3Bucket, c.S3Bucket)
	setStr(&cfg.S3Region, c.S3Region)
	setStr(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&cfg.S3PublicURL, c.S3PublicURL)
	setStr(&cfg.RedisURL, c.RedisURL)

	if c.TokenTTL.Duration > 0 {
		cfg.TokenTTL = c.TokenTTL.Duration
	}
	if c.DownloadURLTTL.Duration > 0 {
		cfg.DownloadURLTTL = c.DownloadURLTTL.Duration
	}
	if c.LoginWindow.Duration > 0 {
		cfg.LoginWindow = c.LoginWindow.Duration
	}
	if len(c.CORSOrigins) > 0 {
		cfg.CORSOrigins = c.CORSOrigins
	}
	if c.MaxUploadSize > 0 {
		cfg.MaxUploadSize = c.MaxUploadSize
	}
	if c.LoginAttempts > 0 {
		cfg.LoginAttempts = c.LoginAttempts
	}
	if c.S3PresignDownloads != nil {
		cfg.S3PresignDownloads = *c.S3PresignDownloads
	}
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
