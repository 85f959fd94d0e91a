package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
	"discord-sales-bot/internal/infra/metrics"
	"discord-sales-bot/internal/infra/scheduler"
)

const (
	DefaultRetention = 7
	MaxAutoHours     = 168

	partialSuffix   = ".partial"
	maxNameAttempts = 100
)

// Dumper runs the external dump and restore utilities against the live store.
type Dumper interface {
	Dump(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}

type Config struct {
	Dir       string
	Product   string
	Retention int
}

// Manager creates, prunes and restores database dumps in one directory.
// A backup and a restore never run at the same time.
type Manager struct {
	cfg    Config
	dumper Dumper
	log    *zerolog.Logger
	now    func() time.Time

	busy sync.Mutex

	mu   sync.Mutex
	auto *scheduler.Scheduler
}

func NewManager(cfg Config, dumper Dumper, logger *zerolog.Logger) (*Manager, error) {
	if cfg.Dir == "" {
		cfg.Dir = "backups"
	}
	if cfg.Product == "" {
		return nil, fmt.Errorf("%w: backup product name is required", domain.ErrInvalidArgument)
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	l := logger.With().Str("component", "backup").Logger()
	return &Manager{cfg: cfg, dumper: dumper, log: &l, now: time.Now}, nil
}

func (m *Manager) prefix() string { return m.cfg.Product + "_backup_" }

// FileName renders the artifact name for t: <product>_backup_<ISO-8601 UTC
// with ':' and '.' replaced by '-'>.sql
func (m *Manager) FileName(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return m.prefix() + ts + ".sql"
}

func (m *Manager) isArtifact(name string) bool {
	return strings.HasPrefix(name, m.prefix()) && strings.HasSuffix(name, ".sql")
}

// CreateBackup dumps the store into a new artifact and prunes old ones.
// Nothing is counted toward retention unless the dump finished non-empty.
func (m *Manager) CreateBackup(ctx context.Context) (rec *model.BackupRecord, err error) {
	if !m.busy.TryLock() {
		return nil, domain.ErrBackupInProgress
	}
	defer m.busy.Unlock()

	start := time.Now()
	defer func() { metrics.ObserveBackup("backup", time.Since(start), err) }()

	created := m.now()
	name := m.FileName(created)
	final := filepath.Join(m.cfg.Dir, name)
	partial := final + partialSuffix

	m.log.Info().Str("file", name).Msg("starting backup")
	if err := m.dumper.Dump(ctx, partial); err != nil {
		_ = os.Remove(partial)
		m.log.Error().Err(err).Str("file", name).Msg("dump failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrBackupFailed, err)
	}

	st, err := os.Stat(partial)
	if err != nil || st.Size() == 0 {
		_ = os.Remove(partial)
		m.log.Error().Str("file", name).Msg("dump produced an empty artifact")
		return nil, fmt.Errorf("%w: empty artifact", domain.ErrBackupFailed)
	}
	name, final, err = m.publish(partial, name)
	_ = os.Remove(partial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackupFailed, err)
	}
	_ = os.Chtimes(final, created, created)

	rec = &model.BackupRecord{Name: name, Path: final, SizeBytes: st.Size(), CreatedAt: created}
	m.log.Info().Str("file", name).Int64("bytes", st.Size()).Dur("took", time.Since(start)).Msg("backup created")

	if _, err := m.PruneOldBackups(ctx); err != nil {
		m.log.Warn().Err(err).Msg("prune after backup failed")
	}
	return rec, nil
}

// publish hard-links the finished dump under name, adding a -N suffix when an
// artifact with the same timestamp already exists. Existing files are never replaced.
func (m *Manager) publish(partial, name string) (string, string, error) {
	base := strings.TrimSuffix(name, ".sql")
	for i := 0; i < maxNameAttempts; i++ {
		if i > 0 {
			name = fmt.Sprintf("%s-%d.sql", base, i)
		}
		final := filepath.Join(m.cfg.Dir, name)
		err := os.Link(partial, final)
		if err == nil {
			return name, final, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
	return "", "", fmt.Errorf("no free artifact name for %s", base)
}

// ListBackups returns every artifact newest first.
func (m *Manager) ListBackups(ctx context.Context) ([]model.BackupRecord, error) {
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return nil, err
	}
	out := make([]model.BackupRecord, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !m.isArtifact(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, model.BackupRecord{
			Name:      e.Name(),
			Path:      filepath.Join(m.cfg.Dir, e.Name()),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// PruneOldBackups deletes everything beyond the retention count. Failed
// deletions are logged and skipped.
func (m *Manager) PruneOldBackups(ctx context.Context) (int, error) {
	list, err := m.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	if len(list) > m.cfg.Retention {
		for _, b := range list[m.cfg.Retention:] {
			if err := os.Remove(b.Path); err != nil {
				m.log.Warn().Err(err).Str("file", b.Name).Msg("failed to remove old backup")
				continue
			}
			removed++
			m.log.Info().Str("file", b.Name).Msg("old backup removed")
		}
	}
	metrics.SetBackupsRetained(len(list) - removed)
	return removed, nil
}

// Resolve maps a user supplied artifact name to a path inside the backup dir.
func (m *Manager) Resolve(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if !m.isArtifact(base) {
		return "", fmt.Errorf("%w: %q is not a backup artifact", domain.ErrInvalidArgument, name)
	}
	p := filepath.Join(m.cfg.Dir, base)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return p, nil
}

// RestoreBackup overwrites the live store from the named artifact. Callers
// must have obtained explicit operator confirmation.
func (m *Manager) RestoreBackup(ctx context.Context, name string) (err error) {
	p, err := m.Resolve(name)
	if err != nil {
		return err
	}
	if !m.busy.TryLock() {
		return domain.ErrBackupInProgress
	}
	defer m.busy.Unlock()

	start := time.Now()
	defer func() { metrics.ObserveBackup("restore", time.Since(start), err) }()

	m.log.Warn().Str("file", filepath.Base(p)).Msg("restoring backup")
	if err := m.dumper.Restore(ctx, p); err != nil {
		m.log.Error().Err(err).Str("file", filepath.Base(p)).Msg("restore failed")
		return fmt.Errorf("%w: %v", domain.ErrRestoreFailed, err)
	}
	m.log.Info().Str("file", filepath.Base(p)).Dur("took", time.Since(start)).Msg("backup restored")
	return nil
}

// StartAutoBackup runs a backup now and then every hours. An active
// schedule is replaced. The schedule outlives ctx; only StopAutoBackup ends it.
func (m *Manager) StartAutoBackup(ctx context.Context, hours int) error {
	if hours < 1 || hours > MaxAutoHours {
		return fmt.Errorf("%w: interval must be 1-%d hours", domain.ErrInvalidArgument, MaxAutoHours)
	}
	m.startAuto(ctx, time.Duration(hours)*time.Hour)
	return nil
}

func (m *Manager) startAuto(ctx context.Context, every time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auto != nil {
		m.auto.Stop()
	}
	m.auto = scheduler.New("auto-backup", every, func(ctx context.Context) error {
		_, err := m.CreateBackup(ctx)
		return err
	}, m.log)
	m.auto.Start(context.WithoutCancel(ctx))
	m.log.Info().Dur("interval", every).Msg("auto backup scheduled")
}

// StopAutoBackup cancels future runs. It reports false when nothing was
// scheduled; a backup already running is left to finish.
func (m *Manager) StopAutoBackup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auto == nil {
		return false
	}
	stopped := m.auto.Stop()
	m.auto = nil
	if stopped {
		m.log.Info().Msg("auto backup stopped")
	}
	return stopped
}

func (m *Manager) Status(ctx context.Context) (*model.BackupStatus, error) {
	list, err := m.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	st := &model.BackupStatus{Total: len(list), Dir: m.cfg.Dir, Retention: m.cfg.Retention}
	if len(list) > 0 {
		latest := list[0]
		st.Latest = &latest
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.auto != nil {
		if next, ok := m.auto.NextRun(); ok {
			st.AutoActive = true
			st.Interval = m.auto.Interval()
			st.NextRun = &next
		}
	}
	return st, nil
}
