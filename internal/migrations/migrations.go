package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The DDL sticks to types both SQLite and Postgres accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS inventory (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES users(id),
            patient_name TEXT NOT NULL DEFAULT '',
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS customers (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL REFERENCES customers(id),
            total_amount DOUBLE PRECISION NOT NULL,
            order_date TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS order_items (
            order_id TEXT NOT NULL REFERENCES orders(id),
            position INTEGER NOT NULL,
            item_id TEXT NOT NULL,
            name TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            price DOUBLE PRECISION NOT NULL,
            PRIMARY KEY (order_id, position)
        );`,
}

// sessionSchema backs the dashboard's SQL session store.
var sessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
            id TEXT PRIMARY KEY,
            user_json TEXT NOT NULL,
            token TEXT NOT NULL,
            expires_at BIGINT NOT NULL
        );`,
}

// Run creates the schema required by the reference backend.
func Run(db *sqlx.DB) error {
	return apply(db, schema)
}

// RunSessions creates the schema required by the dashboard session store.
func RunSessions(db *sqlx.DB) error {
	return apply(db, sessionSchema)
}

func apply(db *sqlx.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
