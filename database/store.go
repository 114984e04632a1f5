package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotInitialized is returned by every store operation attempted before
// Init succeeds (or after Close).
var ErrNotInitialized = errors.New("database: store not initialized")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the typed entity helpers run equally inside or outside a transaction.
type Querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// MemoryPath opens the store fully in memory; used by tests.
const MemoryPath = ":memory:"

// Store is the single handle to one physical SQLite store. All writes go
// through one serialized connection; reads run on a separate pool so WAL
// readers never block the writer. Construct with NewStore, then Init before
// use. One store per process is a caller convention, not enforced here.
type Store struct {
	path   string
	writer *sql.DB
	reader *sql.DB
}

// NewStore creates an unopened store handle for the given filesystem path or
// MemoryPath.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) inMemory() bool {
	return s.path == MemoryPath
}

func (s *Store) dsn() string {
	if s.inMemory() {
		return ":memory:?_foreign_keys=on"
	}
	return "file:" + s.path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// Init ensures the containing directory exists, opens the connections with
// foreign-key enforcement and WAL durability, and runs all pending
// migrations. The store is unusable until Init returns nil.
func (s *Store) Init() error {
	if s.writer != nil {
		return nil
	}

	if !s.inMemory() {
		dir := filepath.Dir(s.path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	writer, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// single writer connection serializes all mutations
	writer.SetMaxOpenConns(1)
	if err := writer.Ping(); err != nil {
		writer.Close()
		return fmt.Errorf("failed to reach database at %s: %w", s.path, err)
	}

	reader := writer
	if !s.inMemory() {
		reader, err = sql.Open("sqlite3", s.dsn())
		if err != nil {
			writer.Close()
			return fmt.Errorf("failed to open read pool: %w", err)
		}
		reader.SetMaxOpenConns(8)
	}

	if err := RunMigrations(writer, Migrations()); err != nil {
		writer.Close()
		if reader != writer {
			reader.Close()
		}
		return err
	}

	s.writer = writer
	s.reader = reader
	log.Println("database initialized successfully at", s.path)
	return nil
}

// Writer returns the serialized write connection for use with the typed
// entity helpers.
func (s *Store) Writer() (Querier, error) {
	if s.writer == nil {
		return nil, ErrNotInitialized
	}
	return s.writer, nil
}

// Reader returns the read pool. Reads here see a consistent WAL snapshot and
// do not block the writer.
func (s *Store) Reader() (Querier, error) {
	if s.reader == nil {
		return nil, ErrNotInitialized
	}
	return s.reader, nil
}

// Exec runs one parameterized statement on the writer connection.
func (s *Store) Exec(query string, args ...interface{}) (sql.Result, error) {
	if s.writer == nil {
		return nil, ErrNotInitialized
	}
	return s.writer.Exec(query, args...)
}

// QueryRow runs a parameterized single-row query on the read pool.
func (s *Store) QueryRow(query string, args ...interface{}) (*sql.Row, error) {
	if s.reader == nil {
		return nil, ErrNotInitialized
	}
	return s.reader.QueryRow(query, args...), nil
}

// Query runs a parameterized multi-row query on the read pool.
func (s *Store) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if s.reader == nil {
		return nil, ErrNotInitialized
	}
	return s.reader.Query(query, args...)
}

// BeginTx opens an explicit transaction on the writer connection.
// Transactions are non-nested: do not begin another while one is open. A
// failed statement inside the transaction leaves rollback to the caller; the
// store never rolls back on its own.
func (s *Store) BeginTx() (*sql.Tx, error) {
	if s.writer == nil {
		return nil, ErrNotInitialized
	}
	return s.writer.Begin()
}

// Close releases both connections. Safe to call on a store that was never
// initialized.
func (s *Store) Close() error {
	if s.writer == nil {
		return nil
	}
	var firstErr error
	if s.reader != nil && s.reader != s.writer {
		firstErr = s.reader.Close()
	}
	if err := s.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.writer = nil
	s.reader = nil
	return firstErr
}
