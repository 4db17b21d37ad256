package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	PublishTargetSheets  = "sheets"
	PublishTargetConsole = "console"
)

type Config struct {
	WOMAPIKey     string
	WOMUserAgent  string
	WOMBaseURL    string
	CompetitionID int

	DBPath string

	SpreadsheetID         string
	GoogleCredentialsFile string
	PublishTarget         string
	ConstantsFile         string

	FetchDelay      time.Duration
	FetchMaxRetries int

	PushgatewayURL string
	LogLevel       string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	competitionID, err := strconv.Atoi(getEnv("COMPETITION_ID", "37530"))
	if err != nil {
		return nil, fmt.Errorf("COMPETITION_ID must be an integer: %w", err)
	}
	fetchDelay, err := time.ParseDuration(getEnv("FETCH_DELAY", "3s"))
	if err != nil {
		return nil, fmt.Errorf("FETCH_DELAY must be a duration: %w", err)
	}
	maxRetries, err := strconv.Atoi(getEnv("FETCH_MAX_RETRIES", "3"))
	if err != nil || maxRetries < 0 {
		return nil, fmt.Errorf("FETCH_MAX_RETRIES must be a non-negative integer")
	}

	cfg := &Config{
		WOMAPIKey:             getEnv("WOM_API_KEY", ""),
		WOMUserAgent:          getEnv("WOM_USER_AGENT", "bingo-tracker"),
		WOMBaseURL:            getEnv("WOM_BASE_URL", "https://api.wiseoldman.net/v2"),
		CompetitionID:         competitionID,
		DBPath:                getEnv("DB_PATH", "solus_bingo.db"),
		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		PublishTarget:         getEnv("PUBLISH_TARGET", PublishTargetConsole),
		ConstantsFile:         getEnv("EFFICIENCY_CONSTANTS_FILE", ""),
		FetchDelay:            fetchDelay,
		FetchMaxRetries:       maxRetries,
		PushgatewayURL:        getEnv("PUSHGATEWAY_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	// sheets credentials are checked when a publisher is built
	if cfg.PublishTarget != PublishTargetConsole && cfg.PublishTarget != PublishTargetSheets {
		return nil, fmt.Errorf("unknown PUBLISH_TARGET %q", cfg.PublishTarget)
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Int("competition_id", cfg.CompetitionID).
		Str("publish_target", cfg.PublishTarget).
		Dur("fetch_delay", cfg.FetchDelay).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
