package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("store operation failed")

	// Store plumbing
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Payment lifecycle
	ErrInvalidTransition = errors.New("invalid payment status transition")
	ErrAlreadyTerminal   = errors.New("payment already in target state")
	ErrOutOfStock        = errors.New("no keys left in stock")
	ErrLockTimeout       = errors.New("timed out waiting for lock")

	// Authorization
	ErrUnauthorized   = errors.New("principal not authorized")
	ErrOwnerImmutable = errors.New("owner cannot be added or removed")
	ErrOwnerOnly      = errors.New("operation restricted to the owner")

	// Keys
	ErrExhaustedKeySpace = errors.New("could not generate a unique key")
	ErrKeyUnavailable    = errors.New("key is not active")

	// Backups
	ErrBackupFailed     = errors.New("backup failed")
	ErrBackupInProgress = errors.New("another backup or restore is running")
	ErrRestoreFailed    = errors.New("restore failed")
	ErrConfirmRequired  = errors.New("explicit confirmation required")
)
