package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sidhlee/task-manager-api/internal/flagx"
)

const defaultEnvFile = ".env"

// envConfig lists the variables read from the environment. Unset variables
// leave the corresponding Config field untouched.
type envConfig struct {
	Port                  *string  `env:"PORT"`
	EndpointAddrHTTP      *string  `env:"HTTP_ADDRESS"`
	DatabaseDSN           *string  `env:"DATABASE_URL"`
	Storage               *string  `env:"STORAGE"`
	SecretKey             *string  `env:"JWT_SECRET"`
	TokenValidityDuration *string  `env:"TOKEN_TTL"`
	BcryptCost            *int     `env:"BCRYPT_COST"`
	SendGridAPIKey        *string  `env:"SENDGRID_API_KEY"`
	MailFrom              *string  `env:"MAIL_FROM"`
	CORSOrigins           []string `env:"CORS_ORIGINS" envSeparator:","`
	LogLevel              *string  `env:"LOG_LEVEL"`
	AvatarStorage         *string  `env:"AVATAR_STORAGE"`
	S3AccessKey           *string  `env:"S3_ACCESS_KEY"`
	S3SecretKey           *string  `env:"S3_SECRET_KEY"`
	S3Bucket              *string  `env:"S3_BUCKET"`
	S3Region              *string  `env:"S3_REGION"`
	S3BaseEndpoint        *string  `env:"S3_BASE_ENDPOINT"`
}

// parseEnv loads the dotenv file (the -env flag, or ./.env when present)
// without overriding variables that are already set, then overlays the
// environment onto config.
func parseEnv(config *Config, args []string) error {
	if err := loadDotenv(flagx.EnvFilePath(args)); err != nil {
		return err
	}

	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if e.Port != nil && *e.Port != "" {
		config.EndpointAddrHTTP = ":" + *e.Port
	}
	setString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.Storage, e.Storage)
	setString(&config.SecretKey, e.SecretKey)
	if e.TokenValidityDuration != nil {
		d, err := parseDuration(*e.TokenValidityDuration)
		if err != nil {
			return fmt.Errorf("parse env TOKEN_TTL: %w", err)
		}
		config.TokenValidityDuration = d
	}
	if e.BcryptCost != nil {
		config.BcryptCost = *e.BcryptCost
	}
	setString(&config.SendGridAPIKey, e.SendGridAPIKey)
	setString(&config.MailFrom, e.MailFrom)
	if e.CORSOrigins != nil {
		config.CORSOrigins = e.CORSOrigins
	}
	setString(&config.LogLevel, e.LogLevel)
	setString(&config.AvatarStorage, e.AvatarStorage)
	setString(&config.S3AccessKey, e.S3AccessKey)
	setString(&config.S3SecretKey, e.S3SecretKey)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.S3Region)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)

	return nil
}

func loadDotenv(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
