package store

import (
	"context"
	"fmt"
	"time"

	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/models"

	"github.com/google/uuid"
)

type MessageStore struct {
	db *database.Database
}

func NewMessageStore(db *database.Database) *MessageStore {
	return &MessageStore{db: db}
}

// Append writes one chat history row. History is append-only; rows are never
// updated or deleted.
func (s *MessageStore) Append(ctx context.Context, sender, receiver, body string) (*models.Message, error) {
	msg := models.Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(ctx,
		"INSERT INTO messages (id, sender, receiver, body, created_at) VALUES ($1, $2, $3, $4, $5)",
		msg.ID, msg.Sender, msg.Receiver, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &msg, nil
}

// Conversation returns every message exchanged between the two parties in
// either direction, ordered by timestamp ascending.
func (s *MessageStore) Conversation(ctx context.Context, partyA, partyB string) ([]models.Message, error) {
	query := `
		SELECT id, sender, receiver, body, created_at
		FROM messages
		WHERE (sender = $1 AND receiver = $2) OR (sender = $2 AND receiver = $1)
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, partyA, partyB)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DistinctSenders lists every distinct sender in history except the given
// own id (the business phone number). Senders without a contact row still
// show up here.
func (s *MessageStore) DistinctSenders(ctx context.Context, ownID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		"SELECT DISTINCT sender FROM messages WHERE sender != $1 ORDER BY sender ASC",
		ownID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var sdr string
		if err := rows.Scan(&sdr); err != nil {
			return nil, fmt.Errorf("failed to scan sender row: %w", err)
		}
		senders = append(senders, sdr)
	}
	return senders, rows.Err()
}
