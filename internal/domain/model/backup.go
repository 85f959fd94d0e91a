package model

import "time"

// BackupRecord describes one dump artifact on disk.
type BackupRecord struct {
	Name      string
	Path      string
	SizeBytes int64
	CreatedAt time.Time
}

type BackupStatus struct {
	Total      int
	Latest     *BackupRecord
	AutoActive bool
	Interval   time.Duration
	NextRun    *time.Time
	Dir        string
	Retention  int
}
