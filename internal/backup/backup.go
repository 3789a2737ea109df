// Package backup snapshots the SQLite database to S3-compatible storage.
// The database file is the whole deployment's state, so snapshots are
// encrypted client-side before upload.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/perchwood/curbside/internal/store"
)

// s3Client is the subset of the S3 API the manager needs; an interface so
// tests can substitute a fake.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds backup manager configuration. An empty AccessKey disables
// the manager entirely.
type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Passphrase string
	DBPath     string
	Interval   time.Duration
}

// Manager uploads encrypted database snapshots on a fixed interval.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	client s3Client
	db     *sql.DB
	rec    *store.BackupStore
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, rec *store.BackupStore, logger *slog.Logger) *Manager {
	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}

	m := &Manager{cfg: cfg, db: db, rec: rec, logger: logger}
	if cfg.AccessKey != "" && cfg.SecretKey != "" && cfg.Bucket != "" {
		m.client = s3.New(s3.Options{
			BaseEndpoint: aws.String(cfg.Endpoint),
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			UsePathStyle: true,
		})
	}
	return m
}

// Enabled reports whether S3 credentials are configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start begins the periodic snapshot loop. No-op when disabled.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		m.logger.Info("backups disabled: no S3 credentials")
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled backup", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the snapshot loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunNow takes a snapshot immediately and returns the backup record id.
func (m *Manager) RunNow(ctx context.Context) (int64, error) {
	if !m.Enabled() {
		return 0, fmt.Errorf("backup not configured: S3 credentials missing")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("curbside-%s.db.enc", timestamp)
	s3Key := "backups/" + filename

	record, err := m.rec.Create(filename, s3Key)
	if err != nil {
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	data, err := m.snapshot(ctx)
	if err != nil {
		m.rec.MarkFailed(record.ID, err.Error())
		return 0, err
	}

	sealed, err := seal(data, m.cfg.Passphrase)
	if err != nil {
		m.rec.MarkFailed(record.ID, err.Error())
		return 0, fmt.Errorf("encrypt snapshot: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		m.rec.MarkFailed(record.ID, err.Error())
		return 0, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.rec.MarkCompleted(record.ID, int64(len(sealed))); err != nil {
		return 0, err
	}

	m.logger.Info("backup uploaded", "key", s3Key, "bytes", len(sealed))
	return record.ID, nil
}

// snapshot checkpoints the WAL and reads a consistent copy of the database
// file.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("wal checkpoint: %w", err)
	}

	data, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	return data, nil
}
