package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/docutrack/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":4000")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret
//	-t int      token validity, hours
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket
//	-r string   S3 region
//	-e string   S3 base endpoint
//	-redis string  Redis URL for the login limiter
//
// Arguments not listed here are filtered out first, so other flag sets
// (e.g. -c for the JSON file) can share os.Args.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-u", "-p", "-b", "-r", "-e", "-redis"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP address and port")
	fs.StringVar(&cfg.GRPCHealthAddr, "g", cfg.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "token secret key")
	ttlHours := fs.Int("t", int(cfg.TokenTTL.Hours()), "token validity (in hours)")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "r", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.TokenTTL = time.Duration(*ttlHours) * time.Hour
		}
	})
	return nil
}
