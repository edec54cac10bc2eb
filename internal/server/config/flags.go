package config

import (
	"flag"
	"io"
	"strconv"
	"time"

	"github.com/sidhlee/task-manager-api/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-m string   storage backend: postgres | memory
//	-s string   JWT HMAC secret key
//	-t string   token validity, Go duration or minutes; 0 disables expiry
//	-l string   log level
//
// Only these flags are read from args; -c/-config and -env belong to the
// other layers.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-m", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	validity := fs.String("t", config.TokenValidityDuration.String(), "token validity (duration or minutes, 0 = no expiry)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := parseDuration(*validity)
	if err != nil {
		return err
	}
	config.TokenValidityDuration = d
	return nil
}

// parseDuration accepts a Go duration ("72h") or a bare number of minutes.
func parseDuration(v string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(v); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	return time.ParseDuration(v)
}
