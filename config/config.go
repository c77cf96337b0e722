package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             string
	SecretKey        string
	DatabasePath     string
	LoanDurationDays int
	ExternalBaseURL  string
	ExternalToken    string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPFrom         string
}

func Load() (*Config, error) {
	loanDays := 14
	if v := getEnv("DEFAULT_LOAN_DURATION_DAYS", "14"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			loanDays = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", "587"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		SecretKey:        getEnv("SECRET_KEY", "dev-secret-change-me"),
		DatabasePath:     getEnv("DATABASE_PATH", "lumina.db"),
		LoanDurationDays: loanDays,
		ExternalBaseURL:  getEnv("EXTERNAL_API_BASE_URL", ""),
		ExternalToken:    getEnv("EXTERNAL_API_TOKEN", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         smtpPort,
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:         getEnv("SMTP_FROM", ""),
	}, nil
}

// ExternalEnabled reports whether the external catalog integration is
// configured. An empty base URL disables it entirely.
func (c *Config) ExternalEnabled() bool {
	return c.ExternalBaseURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
