package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"crypto_exec/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the execution journal: one row per entry attempt.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite journal at path.
// An empty path resolves to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.ExecutionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CryptoExec", "data", "executions.db"), nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Execution Journal
// ======================================================================================

// SaveExecution appends an entry outcome to the journal.
func (s *Storage) SaveExecution(rec *domain.ExecutionRecord) error {
	return s.db.Create(rec).Error
}

// GetExecutionByOrderID returns the latest journal row for orderID.
func (s *Storage) GetExecutionByOrderID(orderID string) (*domain.ExecutionRecord, error) {
	var rec domain.ExecutionRecord
	err := s.db.Where("order_id = ?", orderID).Order("id desc").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListExecutions returns the most recent rows, newest first.
// limit <= 0 returns everything.
func (s *Storage) ListExecutions(limit int) ([]domain.ExecutionRecord, error) {
	var recs []domain.ExecutionRecord
	q := s.db.Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}

// ListFailures returns journaled entries that ended in an error.
func (s *Storage) ListFailures() ([]domain.ExecutionRecord, error) {
	var recs []domain.ExecutionRecord
	err := s.db.Where("error <> ?", "").Order("id desc").Find(&recs).Error
	return recs, err
}
