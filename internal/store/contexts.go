package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/models"

	"github.com/jackc/pgx/v5"
)

// ContextStore persists the responder's per-contact conversation context in
// the same database as the rest of the system, keyed by phone number.
type ContextStore struct {
	db *database.Database
}

func NewContextStore(db *database.Database) *ContextStore {
	return &ContextStore{db: db}
}

// Load returns the stored turns for a contact, or an empty slice when the
// contact has no context yet.
func (s *ContextStore) Load(ctx context.Context, phoneNumber string) ([]models.ChatTurn, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		"SELECT turns FROM chat_contexts WHERE phone_number = $1",
		phoneNumber,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.ChatTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat context: %w", err)
	}

	var turns []models.ChatTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode chat context: %w", err)
	}
	return turns, nil
}

// Save upserts the full turn list for a contact.
func (s *ContextStore) Save(ctx context.Context, phoneNumber string, turns []models.ChatTurn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to encode chat context: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO chat_contexts (phone_number, turns, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phone_number) DO UPDATE SET turns = $2, updated_at = NOW()`,
		phoneNumber, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save chat context: %w", err)
	}
	return nil
}
