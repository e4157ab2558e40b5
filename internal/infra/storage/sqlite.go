package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"dfs_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists run history in a local SQLite database. Implements
// domain.RunRepository.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance at path. An empty path
// resolves to the per-user data directory.
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
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.RunRecord{}, &domain.LineupRecord{}, &domain.SwapRecord{}); err != nil {
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

	return filepath.Join(configDir, "DFSGo", "data", "dfs.db"), nil
}

// ======================================================================================
// Run Operations
// ======================================================================================

// CreateRun inserts a new run record at run start
func (s *Storage) CreateRun(run *domain.RunRecord) error {
	return s.db.Create(run).Error
}

// FinishRun updates the run record with its final counters
func (s *Storage) FinishRun(run *domain.RunRecord) error {
	return s.db.Save(run).Error
}

// GetRun retrieves one run by id
func (s *Storage) GetRun(id string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	err := s.db.First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &run, err
}

// RecentRuns retrieves the latest runs, newest first
func (s *Storage) RecentRuns(limit int) ([]domain.RunRecord, error) {
	var runs []domain.RunRecord
	err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// ======================================================================================
// Lineup Operations
// ======================================================================================

// SaveLineup inserts one accepted lineup
func (s *Storage) SaveLineup(rec *domain.LineupRecord) error {
	return s.db.Create(rec).Error
}

// LineupsByRun retrieves a run's lineups in acceptance order
func (s *Storage) LineupsByRun(runID string) ([]domain.LineupRecord, error) {
	var recs []domain.LineupRecord
	err := s.db.Where("run_id = ?", runID).Order("seq ASC").Find(&recs).Error
	return recs, err
}

// ======================================================================================
// Swap Operations
// ======================================================================================

// SaveSwap inserts one late-swap outcome
func (s *Storage) SaveSwap(rec *domain.SwapRecord) error {
	return s.db.Create(rec).Error
}

// SwapsByRun retrieves a run's swap outcomes in insertion order
func (s *Storage) SwapsByRun(runID string) ([]domain.SwapRecord, error) {
	var recs []domain.SwapRecord
	err := s.db.Where("run_id = ?", runID).Find(&recs).Error
	return recs, err
}
