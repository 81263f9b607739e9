package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glowdesk/notify/internal/domain"
)

// File is the on-disk snapshot layout: the three serialized collections plus
// the save timestamp. There is no schema versioning.
type File struct {
	Notifications []domain.Notification     `json:"notifications"`
	Preferences   []domain.UserPreferences  `json:"preferences"`
	DeliveryLog   []domain.DeliveryLogEntry `json:"delivery_log"`
	SavedAt       time.Time                 `json:"saved_at"`
}

type notificationStore interface {
	Export() []domain.Notification
	Restore([]domain.Notification)
}

type preferenceStore interface {
	Export() []domain.UserPreferences
	Restore([]domain.UserPreferences)
}

type deliveryLog interface {
	Export() []domain.DeliveryLogEntry
	Restore([]domain.DeliveryLogEntry)
}

// Archiver is an optional secondary copy target for saved snapshots (S3).
// Archive failures are logged, never propagated.
type Archiver interface {
	Archive(ctx context.Context, data []byte) error
}

// Snapshotter serializes the notification store, preference store and
// delivery-log tail to a single file and restores them at startup. All I/O
// is best-effort: errors are logged and never reach business callers.
type Snapshotter struct {
	path          string
	notifications notificationStore
	preferences   preferenceStore
	deliveryLog   deliveryLog
	archiver      Archiver

	mu          sync.Mutex
	lastSavedAt *time.Time
}

func New(path string,
	notifications notificationStore,
	preferences preferenceStore,
	deliveryLog deliveryLog,
	archiver Archiver,
) *Snapshotter {
	return &Snapshotter{
		path:          path,
		notifications: notifications,
		preferences:   preferences,
		deliveryLog:   deliveryLog,
		archiver:      archiver,
	}
}

// Save serializes all three collections, overwriting the previous snapshot.
// The write goes through a temp file and rename so a crash mid-write cannot
// corrupt the last good snapshot.
func (s *Snapshotter) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	data, err := json.Marshal(File{
		Notifications: s.notifications.Export(),
		Preferences:   s.preferences.Export(),
		DeliveryLog:   s.deliveryLog.Export(),
		SavedAt:       now,
	})
	if err != nil {
		log.Printf("snapshot: marshal failed: %v", err)
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Printf("snapshot: mkdir failed: %v", err)
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("snapshot: write failed: %v", err)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("snapshot: rename failed: %v", err)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	s.lastSavedAt = &now

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, data); err != nil {
			log.Printf("snapshot: archive upload failed: %v", err)
		}
	}
	return nil
}

// Load restores all three collections from the snapshot file. A missing file
// is not an error; the system starts empty. A corrupt file is logged and
// likewise leaves the system empty rather than refusing to start.
func (s *Snapshotter) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		log.Printf("snapshot: read failed, starting empty: %v", err)
		return nil
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("snapshot: corrupt file, starting empty: %v", err)
		return nil
	}
	s.notifications.Restore(f.Notifications)
	s.preferences.Restore(f.Preferences)
	s.deliveryLog.Restore(f.DeliveryLog)
	s.mu.Lock()
	s.lastSavedAt = &f.SavedAt
	s.mu.Unlock()
	log.Printf("snapshot: restored %d notifications, %d preferences, %d log entries (saved %s)",
		len(f.Notifications), len(f.Preferences), len(f.DeliveryLog), f.SavedAt.Format(time.RFC3339))
	return nil
}

// LastSavedAt returns the timestamp of the most recent successful save, or
// the restored snapshot's save time, or nil when neither happened.
func (s *Snapshotter) LastSavedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// Run saves on the given interval until ctx is cancelled. The caller is
// responsible for a final save at shutdown.
func (s *Snapshotter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.Save(ctx)
		case <-ctx.Done():
			return
		}
	}
}
