package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// Reservanto portal credentials and feed parameters
	ReservantoUsername string
	ReservantoPassword string
	FeedResourceIDs    string
	FeedWindowStart    time.Time

	// Google Sheets publishing
	GoogleEmailAddress string
	CredentialsPath    string

	// Report parameters
	AbsenceDays int
	ReportMonth int
	ReportYear  int

	// Service mode (reportd)
	Port           string
	AdminJWTSecret string
	RunSchedule    string
}

// Load reads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ReservantoUsername: getEnv("RESERVANTO_USERNAME", ""),
		ReservantoPassword: getEnv("RESERVANTO_PASSWORD", ""),
		FeedResourceIDs:    getEnv("FEED_RESOURCE_IDS", "36459"),
		FeedWindowStart:    getEnvAsTime("FEED_WINDOW_START", time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)),

		GoogleEmailAddress: getEnv("GOOGLE_EMAIL_ADDRESS", ""),
		CredentialsPath:    getEnv("CREDENTIALS_PATH", "credentials.json"),

		AbsenceDays: getEnvAsInt("ABSENCE_DAYS", 100),
		ReportMonth: getEnvAsInt("REPORT_MONTH", int(time.Now().UTC().Month())),
		ReportYear:  getEnvAsInt("REPORT_YEAR", 2025),

		Port:           getEnv("PORT", "8080"),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		RunSchedule:    getEnv("RUN_SCHEDULE", ""),
	}
}

// Validate checks that every required secret is present. It reports all
// missing variables at once so the operator can fix them in one pass.
// Offline runs read a cached snapshot and need no portal credentials.
func (c *Config) Validate(offline bool) error {
	var missing []string
	if !offline && c.ReservantoUsername == "" {
		missing = append(missing, "RESERVANTO_USERNAME")
	}
	if !offline && c.ReservantoPassword == "" {
		missing = append(missing, "RESERVANTO_PASSWORD")
	}
	if c.GoogleEmailAddress == "" {
		missing = append(missing, "GOOGLE_EMAIL_ADDRESS")
	}
	if c.CredentialsPath == "" {
		missing = append(missing, "CREDENTIALS_PATH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.ReportMonth < 1 || c.ReportMonth > 12 {
		return fmt.Errorf("config: REPORT_MONTH must be 1-12, got %d", c.ReportMonth)
	}
	if c.AbsenceDays < 0 {
		return fmt.Errorf("config: ABSENCE_DAYS must not be negative, got %d", c.AbsenceDays)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsTime retrieves an environment variable as a YYYY-MM-DD date or returns a default value
func getEnvAsTime(key string, defaultValue time.Time) time.Time {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.Parse("2006-01-02", valueStr); err == nil {
		return value.UTC()
	}
	return defaultValue
}
