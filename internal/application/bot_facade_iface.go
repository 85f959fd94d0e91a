package application

import (
	"context"

	"discord-sales-bot/internal/domain/model"
)

// ---- small interfaces to decouple the facade from concrete infra structs ----

// Translator renders reply texts in the configured language.
type Translator interface {
	T(key string, args ...interface{}) string
}

// BackupService is the part of the backup manager the chat commands drive.
type BackupService interface {
	CreateBackup(ctx context.Context) (*model.BackupRecord, error)
	ListBackups(ctx context.Context) ([]model.BackupRecord, error)
	RestoreBackup(ctx context.Context, name string) error
	StartAutoBackup(ctx context.Context, hours int) error
	StopAutoBackup() bool
	Status(ctx context.Context) (*model.BackupStatus, error)
}

// Caller identifies who issued a chat command.
type Caller struct {
	ID   string
	Name string
}
