package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"jordanella.com/aim-loop-go/internal/logging"
)

// FileName is the index file kept at the root of a dataset directory
const FileName = "dataset.db"

const busyTimeoutMs = 2000

// DB is the dataset index: one row per saved frame and one per label
type DB struct {
	conn   *sql.DB
	path   string
	logger *logging.Logger
}

// Stats summarizes the index
type Stats struct {
	Frames   int64
	Labelled int64
	Bytes    int64
}

// PathIn returns the index location inside a dataset root
func PathIn(root string) string {
	return filepath.Join(root, FileName)
}

// Open opens or creates the index at dbPath and brings its schema up to date
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d", dbPath, busyTimeoutMs)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// The saver is the only writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{
		conn:   conn,
		path:   dbPath,
		logger: logging.NewLogger("Database"),
	}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion returns the applied schema version
func (db *DB) SchemaVersion() (int, error) {
	return db.currentVersion()
}

func (db *DB) withTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Vacuum compacts the index after large prunes
func (db *DB) Vacuum() error {
	_, err := db.conn.Exec("VACUUM")
	return err
}

// Stats counts frames and labels and reports the file size
func (db *DB) Stats() (Stats, error) {
	var s Stats
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM frames),
			(SELECT COUNT(*) FROM frame_labels)
	`).Scan(&s.Frames, &s.Labelled)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count frames: %w", err)
	}

	if info, err := os.Stat(db.path); err == nil {
		s.Bytes = info.Size()
	}
	return s, nil
}
