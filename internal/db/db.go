package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the sql connection plus the driver name so repositories
// can share one placeholder-rebinding helper. Production runs on pgx;
// tests run the same schema on sqlite3 :memory:.
type Database struct {
	Conn   *sql.DB
	driver string
}

func NewDatabase(driver, dsn string) (*Database, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	if driver == "pgx" {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(25)
		conn.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// sqlite :memory: loses the schema if the pool opens a second connection
		conn.SetMaxOpenConns(1)
	}
	return &Database{Conn: conn, driver: driver}, nil
}

// Rebind converts ?-style placeholders to $n when running on Postgres.
func (d *Database) Rebind(query string) string {
	if d.driver != "pgx" {
		return query
	}
	n := strings.Count(query, "?")
	for i := 1; i <= n; i++ {
		query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
	}
	return query
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT '',
            profile_pic TEXT NOT NULL DEFAULT '',
            phone_number TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS rooms (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            room_pic TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS room_members (
            room_id TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL,
            PRIMARY KEY (room_id, user_id)
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            sender_id TEXT NOT NULL,
            receiver_id TEXT,
            room_id TEXT,
            text TEXT NOT NULL DEFAULT '',
            image TEXT NOT NULL DEFAULT '',
            audio TEXT NOT NULL DEFAULT '',
            video TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS calls (
            id TEXT PRIMARY KEY,
            caller_id TEXT NOT NULL,
            receiver_id TEXT NOT NULL,
            call_type TEXT NOT NULL DEFAULT 'audio',
            status TEXT NOT NULL DEFAULT 'ringing',
            started_at TIMESTAMP NOT NULL,
            answered_at TIMESTAMP,
            ended_at TIMESTAMP,
            duration INT
        )`,

		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_peers ON messages(sender_id, receiver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_parties ON calls(caller_id, receiver_id)`,
	}

	for _, query := range queries {
		if _, err := d.Conn.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
