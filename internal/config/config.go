package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"eshop"`
	DBPath     string `env:"DBPath" envDefault:"datas/eshop.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"eshop"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"60"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"8"`

	// SMTP settings for activation and password reset mail. Leaving the host
	// empty switches delivery to the logging mailer.
	SMTPHost     string `env:"SMTP_HOST" envDefault:""`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@eshop.local"`
	SMTPTLS      bool   `env:"SMTP_TLS" envDefault:"true"`

	// Base URL used when composing activation and reset links in outgoing mail.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CORSAllowedMethods  []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	CORSAllowedHeaders  []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization,X-Requested-With"`
	CORSAllowCredential bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`

	// Optional bootstrap administrator created at startup when no account with
	// this email exists yet.
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:""`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:""`
	SeedAdminName     string `env:"SEED_ADMIN_NAME" envDefault:"Administrator"`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}
