package api

import (
	"errors"
	"net/http"

	"github.com/FRI2020/talk-trace/internal/logger"
	"github.com/FRI2020/talk-trace/internal/models"
	"github.com/FRI2020/talk-trace/internal/store"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the operator dashboard endpoints.
type ChatHandler struct {
	contacts ContactDirectory
	history  HistoryStore
	wa       Dispatcher
	log      *logger.Logger
}

func NewChatHandler(contacts ContactDirectory, history HistoryStore, wa Dispatcher, log *logger.Logger) *ChatHandler {
	return &ChatHandler{contacts: contacts, history: history, wa: wa, log: log}
}

// GetHistory returns the full ordered conversation between a contact and
// the business number.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "user_id is required"})
		return
	}

	conversation, err := h.history.Conversation(c.Request.Context(), userID, h.wa.PhoneNumberID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch conversation"})
		return
	}
	if len(conversation) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "No conversation found for this user"})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// SendAdminMessage dispatches an operator-originated message and records it
// in history.
func (h *ChatHandler) SendAdminMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing message or wa_id"})
		return
	}

	ctx := c.Request.Context()
	if err := h.wa.SendText(ctx, req.WaID, req.Message); err != nil {
		h.log.Error("admin send failed").Str("wa_id", req.WaID).Err(err).Send()
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": "Failed to send message"})
		return
	}

	if _, err := h.history.Append(ctx, h.wa.PhoneNumberID(), req.WaID, req.Message); err != nil {
		h.log.Error("admin message persist failed").Err(err).Send()
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to insert new message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent"})
}

// ToggleHumanChat flips the AI flag: activate=true hands the conversation
// to the operator (AI_ACTIVE=0), activate=false gives it back.
func (h *ChatHandler) ToggleHumanChat(c *gin.Context) {
	var req models.ToggleHumanChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing phone number (wa_id)"})
		return
	}

	aiActive := 1
	if req.Activate {
		aiActive = 0
	}

	contact, err := h.contacts.UpdateFlags(c.Request.Context(), req.WaID, &aiActive, nil)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Contact not found or update failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update contact"})
		return
	}

	message := "AI reactivated"
	if req.Activate {
		message = "Human chat activated"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": message,
		"contact": gin.H{
			"PHONE_NUMBER": contact.PhoneNumber,
			"AI_ACTIVE":    contact.AIActive,
			"STATUS":       contact.Status,
		},
	})
}

// GetContacts lists every known phone number: the contact table plus any
// history sender that has no contact row, so no conversation is hidden from
// the dashboard.
func (h *ChatHandler) GetContacts(c *gin.Context) {
	ctx := c.Request.Context()

	numbers, err := h.contacts.ListPhoneNumbers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch contacts"})
		return
	}

	senders, err := h.history.DistinctSenders(ctx, h.wa.PhoneNumberID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch contacts"})
		return
	}

	seen := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		seen[n] = true
	}
	for _, s := range senders {
		if !seen[s] {
			seen[s] = true
			numbers = append(numbers, s)
		}
	}

	c.JSON(http.StatusOK, numbers)
}
