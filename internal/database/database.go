package database

import (
	"context"
	"fmt"

	"github.com/FRI2020/talk-trace/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Pool *pgxpool.Pool
}

func NewConnection(cfg *config.Config) (*Database, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func RunMigrations(db *Database) error {
	ctx := context.Background()

	// Known senders and their routing flags. ai_active/status are int-valued
	// booleans to match the wire contract of the dashboard endpoints.
	createContactsTable := `
	CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		phone_number VARCHAR(32) UNIQUE NOT NULL,
		ai_active INTEGER NOT NULL DEFAULT 1,
		status INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		deactivated_at TIMESTAMP WITH TIME ZONE
	);`

	// Append-only chat history. sender/receiver are wa_ids, one of them
	// always being the business phone number id.
	createMessagesTable := `
	CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		sender VARCHAR(32) NOT NULL,
		receiver VARCHAR(32) NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`

	// Per-contact LLM conversation context, owned by the responder.
	createContextsTable := `
	CREATE TABLE IF NOT EXISTS chat_contexts (
		phone_number VARCHAR(32) PRIMARY KEY,
		turns JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_contacts_phone_number ON contacts(phone_number);
	CREATE INDEX IF NOT EXISTS idx_messages_sender_receiver ON messages(sender, receiver);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);`

	migrations := []string{
		createContactsTable,
		createMessagesTable,
		createContextsTable,
		createIndexes,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

func (db *Database) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

func (db *Database) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}

func (db *Database) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

func (db *Database) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.Pool.Exec(ctx, sql, args...)
}
