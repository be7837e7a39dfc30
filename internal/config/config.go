package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	AuthSecret   string
	TokenTTLHour int

	CORSOrigins []string

	// Optional tutor account created at startup when it does not exist.
	BootstrapTutorName     string
	BootstrapTutorEmail    string
	BootstrapTutorPassword string

	// Default window, in days, for the submission timeline report.
	TimelineDays int
	// Number of exams shown in the cross-exam comparison.
	ComparisonTopK int
	// Number of students shown on the leaderboard.
	LeaderboardSize int
}

// FromEnv loads config from the environment. A .env file in the working
// directory is read first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PublicURL:              os.Getenv("PUBLIC_URL"),
		DBDriver:               envOr("DB_DRIVER", "sqlite"),
		DBDSN:                  envOr("DB_DSN", ""),
		AuthSecret:             envOr("AUTH_HMAC_SECRET", "examstack-dev-key"),
		TokenTTLHour:           envInt("TOKEN_TTL_HOURS", 8),
		CORSOrigins:            csvOr("CORS_ORIGINS", "http://localhost:3000"),
		BootstrapTutorName:     envOr("BOOTSTRAP_TUTOR_NAME", "Tutor"),
		BootstrapTutorEmail:    os.Getenv("BOOTSTRAP_TUTOR_EMAIL"),
		BootstrapTutorPassword: os.Getenv("BOOTSTRAP_TUTOR_PASSWORD"),
		TimelineDays:           envInt("TIMELINE_DAYS", 30),
		ComparisonTopK:         envInt("COMPARISON_TOP_K", 3),
		LeaderboardSize:        envInt("LEADERBOARD_SIZE", 10),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
