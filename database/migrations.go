package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration is one named, ordered DDL step. Names are the identity recorded
// in the migrations ledger; list order is authoritative and later migrations
// may assume earlier ones ran.
type Migration struct {
	Name string
	SQL  string
}

const migrationsLedgerSQL = `
CREATE TABLE IF NOT EXISTS migrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// RunMigrations applies, in order, every migration whose name is absent from
// the ledger, each in its own transaction. A failing migration rolls back
// entirely and the error propagates; migrations already committed stay
// committed. Re-running against a migrated store is a no-op.
func RunMigrations(db *sql.DB, migrations []Migration) error {
	if _, err := db.Exec(migrationsLedgerSQL); err != nil {
		return fmt.Errorf("failed to create migrations ledger: %w", err)
	}

	rows, err := db.Query("SELECT name FROM migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations ledger: %w", err)
	}
	executed := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migrations ledger row: %w", err)
		}
		executed[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating migrations ledger: %w", err)
	}
	rows.Close()

	for _, m := range migrations {
		if executed[m.Name] {
			continue
		}
		log.Printf("running migration: %s", m.Name)
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
		}
		log.Printf("migration completed: %s", m.Name)
	}

	return nil
}
