package db

import "errors"

// Connection.
var (
	ErrEmptyConnectionString    = errors.New("db: empty connection string")
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
)

// Migrations.
var (
	ErrSetDialect      = errors.New("db: failed to set migration dialect")
	ErrApplyMigrations = errors.New("db: failed to apply migrations")
)

// Transactions.
var (
	ErrBeginTx  = errors.New("db: failed to begin transaction")
	ErrCommitTx = errors.New("db: failed to commit transaction")
)
