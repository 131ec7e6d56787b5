package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FRI2020/talk-trace/internal/database"
	"github.com/FRI2020/talk-trace/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

type ContactStore struct {
	db *database.Database
}

func NewContactStore(db *database.Database) *ContactStore {
	return &ContactStore{db: db}
}

// Create inserts a new contact with default flags (AI on, active). If the
// phone number already exists the insert is a no-op and (nil, nil) is
// returned; concurrent creators race on the unique constraint and the loser
// lands here as well.
func (s *ContactStore) Create(ctx context.Context, phoneNumber string) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (phone_number, ai_active, status, created_at, updated_at)
		VALUES ($1, 1, 1, NOW(), NOW())
		ON CONFLICT (phone_number) DO NOTHING
		RETURNING id, phone_number, ai_active, status, created_at, updated_at, deactivated_at
	`

	var c models.Contact
	err := s.db.QueryRow(ctx, query, phoneNumber).Scan(
		&c.ID, &c.PhoneNumber, &c.AIActive, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.DeactivatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return &c, nil
}

func (s *ContactStore) Exists(ctx context.Context, phoneNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM contacts WHERE phone_number = $1)",
		phoneNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check contact existence: %w", err)
	}
	return exists, nil
}

// Get fetches a contact by phone number, ErrNotFound when unknown.
func (s *ContactStore) Get(ctx context.Context, phoneNumber string) (*models.Contact, error) {
	query := `
		SELECT id, phone_number, ai_active, status, created_at, updated_at, deactivated_at
		FROM contacts
		WHERE phone_number = $1
	`

	var c models.Contact
	err := s.db.QueryRow(ctx, query, phoneNumber).Scan(
		&c.ID, &c.PhoneNumber, &c.AIActive, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.DeactivatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	return &c, nil
}

// UpdateFlags partially updates ai_active and/or status. Nil fields are left
// untouched; updated_at is always bumped.
func (s *ContactStore) UpdateFlags(ctx context.Context, phoneNumber string, aiActive, status *int) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET ai_active = COALESCE($2, ai_active),
		    status = COALESCE($3, status),
		    updated_at = $4
		WHERE phone_number = $1
		RETURNING id, phone_number, ai_active, status, created_at, updated_at, deactivated_at
	`

	var c models.Contact
	err := s.db.QueryRow(ctx, query, phoneNumber, aiActive, status, time.Now()).Scan(
		&c.ID, &c.PhoneNumber, &c.AIActive, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &c.DeactivatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return &c, nil
}

// ListPhoneNumbers returns all known phone numbers.
func (s *ContactStore) ListPhoneNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT phone_number FROM contacts ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		numbers = append(numbers, n)
	}
	if numbers == nil {
		numbers = []string{}
	}
	return numbers, rows.Err()
}
