// Package history persists submitted command lines in a SQLite database.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/atinylittleshell/kpsh/internal/repl/command"
)

type HistoryManager struct {
	db          *gorm.DB
	versionPath string
}

type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Command string
	// Group is the path of the current group when the command was entered.
	Group string
}

const (
	historySchemaVersion = 1
)

// NewHistoryManager opens or creates the history database at dbFilePath. The
// schema version marker is kept next to it.
func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking history db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history db: %w", err)
	}

	historyManager := &HistoryManager{
		db:          db,
		versionPath: filepath.Join(filepath.Dir(dbFilePath), "history_schema_version"),
	}

	if historyManager.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating history schema: %w", err)
		}
		if err := historyManager.writeSchemaVersion(historySchemaVersion); err != nil {
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}

	return historyManager, nil
}

func (historyManager *HistoryManager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := historyManager.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// If the version marker is present but the table is missing (corruption or manual deletion),
	// re-run migrations to restore the schema.
	return !historyManager.db.Migrator().HasTable(&HistoryEntry{})
}

func (historyManager *HistoryManager) writeSchemaVersion(version int) error {
	return os.WriteFile(historyManager.versionPath, []byte(strconv.Itoa(version)), 0600)
}

func (historyManager *HistoryManager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(historyManager.versionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

// Record stores a submitted line. Passwords given to open are removed before
// the line is written; blank lines are not stored.
func (historyManager *HistoryManager) Record(line string, group string) (*HistoryEntry, error) {
	line = Redact(line)
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	entry := HistoryEntry{
		Command: line,
		Group:   group,
	}

	result := historyManager.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// GetRecentEntries returns up to limit entries, oldest first.
func (historyManager *HistoryManager) GetRecentEntries(limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Exec("DELETE FROM history_entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// Close releases the database handle.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Redact drops the password operand from an open command line. Lines that
// do not parse as open are returned unchanged.
func Redact(line string) string {
	tokens, err := command.Tokenize(line)
	if err != nil || len(tokens) < 3 || tokens[0].Value != "open" {
		return line
	}

	// open <file> [password]: keep the command and the first positional.
	var kept []command.Token
	positionals := 0
	for _, tok := range tokens[1:] {
		if strings.HasPrefix(tok.Value, "-") {
			kept = append(kept, tok)
			continue
		}
		positionals++
		if positionals == 1 {
			kept = append(kept, tok)
		}
	}

	var b strings.Builder
	b.WriteString(line[tokens[0].Start:tokens[0].End])
	for _, tok := range kept {
		b.WriteString(" ")
		b.WriteString(line[tok.Start:tok.End])
	}
	return b.String()
}
