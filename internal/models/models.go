package models

import (
	"time"
)

// Contact is a known WhatsApp sender. AIActive and Status are int-valued
// booleans (1 = on) kept as integers to match the dashboard wire contract.
type Contact struct {
	ID            string     `json:"id" db:"id"`
	PhoneNumber   string     `json:"PHONE_NUMBER" db:"phone_number"`
	AIActive      int        `json:"AI_ACTIVE" db:"ai_active"`
	Status        int        `json:"STATUS" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`
}

// Engageable reports whether the automated responder handles this contact.
func (c *Contact) Engageable() bool {
	return c.AIActive == 1 && c.Status == 1
}

// Message is one row of chat history. The upper-case JSON keys are the
// format the dashboard consumes.
type Message struct {
	ID        string    `json:"-" db:"id"`
	Sender    string    `json:"SENDER" db:"sender"`
	Receiver  string    `json:"RECEIVER" db:"receiver"`
	Body      string    `json:"MESSAGE" db:"body"`
	CreatedAt time.Time `json:"TIMESTAMP" db:"created_at"`
}

// ChatTurn is a single role-tagged turn of the responder's LLM context.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	WaID    string `json:"wa_id" binding:"required"`
}

type ToggleHumanChatRequest struct {
	WaID     string `json:"wa_id" binding:"required"`
	Activate bool   `json:"activate"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
