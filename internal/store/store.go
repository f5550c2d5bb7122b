// Package store is the CLI's local draft-history cache: every draft created
// or viewed through the client is recorded so the dashboard can list recent
// drafts without a network round trip. It is convenience state only and is
// never consulted for authentication decisions.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wttnguyen/draftolio/internal/drafts"
)

// CachedDraft is one remembered draft. The ID is the backend's draft id.
type CachedDraft struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Name         string    `json:"name"`
	BlueTeamName string    `json:"blue_team_name"`
	RedTeamName  string    `json:"red_team_name"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	SpectateURL  string    `json:"spectate_url"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	ViewedAt     time.Time `json:"viewed_at"`
}

// Store wraps the sqlite-backed cache.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the cache database at path.
func Open(path string, zlog zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Small local cache: WAL plus a short busy timeout is all it needs.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := db.AutoMigrate(&CachedDraft{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return &Store{db: db}, nil
}

// Record remembers a draft, replacing any previous record of the same id.
func (s *Store) Record(d *drafts.Draft) error {
	cached := CachedDraft{
		ID:           d.ID,
		Name:         d.Name,
		BlueTeamName: d.BlueTeamName,
		RedTeamName:  d.RedTeamName,
		Mode:         d.Mode,
		Status:       string(d.Status),
		SpectateURL:  d.SpectateURL,
		ViewedAt:     time.Now(),
	}

	if err := s.db.Save(&cached).Error; err != nil {
		return fmt.Errorf("failed to record draft %s: %w", d.ID, err)
	}
	return nil
}

// Recent returns the most recently viewed drafts, newest first.
func (s *Store) Recent(limit int) ([]CachedDraft, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []CachedDraft
	err := s.db.Order("viewed_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cached drafts: %w", err)
	}
	return out, nil
}

// Get returns one cached draft, or (nil, nil) when it was never recorded.
func (s *Store) Get(id string) (*CachedDraft, error) {
	var cached CachedDraft
	err := s.db.Where("id = ?", id).First(&cached).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached draft %s: %w", id, err)
	}
	return &cached, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
