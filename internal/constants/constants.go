package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	PublishTimeout     = 60 * time.Second
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RetryBaseDelay = 2 * time.Second
	RetryMaxDelay  = 30 * time.Second
)

// Spreadsheet layout.
const (
	SheetColumnWidth = 200
)
