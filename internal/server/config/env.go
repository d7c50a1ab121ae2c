package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays values from environment variables. lookup is
// os.LookupEnv in production.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("ENV", &cfg.Env)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		cfg.HTTPAddr = ":" + strings.TrimSpace(v)
	}
	str("GRPC_HEALTH_ADDR", &cfg.GRPCHealthAddr)
	str("DATABASE_URL", &cfg.DatabaseDSN)
	str("JWT_SECRET", &cfg.SecretKey)
	str("S3_ROOT_USER", &cfg.S3RootUser)
	str("S3_ROOT_PASSWORD", &cfg.S3RootPassword)
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)
	str("S3_PUBLIC_URL", &cfg.S3PublicURL)
	str("REDIS_URL", &cfg.RedisURL)

	if v, ok := lookup("CORS_ORIGIN"); ok && strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = parseCSV(v)
	}

	durations := map[string]*time.Duration{
		"JWT_TTL":          &cfg.TokenTTL,
		"DOWNLOAD_URL_TTL": &cfg.DownloadURLTTL,
		"LOGIN_WINDOW":     &cfg.LoginWindow,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadSize = n
	}
	if v, ok := lookup("LOGIN_ATTEMPTS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("LOGIN_ATTEMPTS: %w", err)
		}
		cfg.LoginAttempts = n
	}
	if v, ok := lookup("S3_PRESIGN_DOWNLOADS"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("S3_PRESIGN_DOWNLOADS: %w", err)
		}
		cfg.S3PresignDownloads = b
	}
	return nil
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
