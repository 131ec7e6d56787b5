package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/FRI2020/talk-trace/internal/logger"
	"github.com/FRI2020/talk-trace/internal/metrics"
	"github.com/FRI2020/talk-trace/internal/models"
	"github.com/FRI2020/talk-trace/internal/transcribe"
	"github.com/FRI2020/talk-trace/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

const apologyMessage = "I couldn't understand your audio. Please record it again."

// ContactDirectory is the contact store surface the handlers need.
type ContactDirectory interface {
	Exists(ctx context.Context, phoneNumber string) (bool, error)
	Create(ctx context.Context, phoneNumber string) (*models.Contact, error)
	Get(ctx context.Context, phoneNumber string) (*models.Contact, error)
	UpdateFlags(ctx context.Context, phoneNumber string, aiActive, status *int) (*models.Contact, error)
	ListPhoneNumbers(ctx context.Context) ([]string, error)
}

// HistoryStore is the message store surface the handlers need.
type HistoryStore interface {
	Append(ctx context.Context, sender, receiver, body string) (*models.Message, error)
	Conversation(ctx context.Context, partyA, partyB string) ([]models.Message, error)
	DistinctSenders(ctx context.Context, ownID string) ([]string, error)
}

// ReplyGenerator produces an automated reply for a contact.
type ReplyGenerator interface {
	Generate(ctx context.Context, waID, messageBody string) (string, error)
}

// AudioTranscriber converts raw voice-note bytes to text.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Dispatcher sends outbound messages and fetches inbound media.
type Dispatcher interface {
	SendText(ctx context.Context, to, text string) error
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
	PhoneNumberID() string
}

// HandoffAlerter notifies the operator about messages arriving while human
// chat is active.
type HandoffAlerter interface {
	SendHandoffAlert(waID, message string) error
}

type WebhookHandler struct {
	contacts    ContactDirectory
	history     HistoryStore
	responder   ReplyGenerator
	transcriber AudioTranscriber
	wa          Dispatcher
	alerts      HandoffAlerter
	metrics     *metrics.Metrics
	log         *logger.Logger
	verifyToken string
}

func NewWebhookHandler(
	contacts ContactDirectory,
	history HistoryStore,
	rg ReplyGenerator,
	tr AudioTranscriber,
	wa Dispatcher,
	alerts HandoffAlerter,
	m *metrics.Metrics,
	log *logger.Logger,
	verifyToken string,
) *WebhookHandler {
	return &WebhookHandler{
		contacts:    contacts,
		history:     history,
		responder:   rg,
		transcriber: tr,
		wa:          wa,
		alerts:      alerts,
		metrics:     m,
		log:         log,
		verifyToken: verifyToken,
	}
}

// Verify answers the Cloud API subscription handshake with the challenge
// value.
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")
	token := c.Query("hub.verify_token")

	if mode == "" || challenge == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing required query parameters"})
		return
	}

	if mode != "subscribe" || token != h.verifyToken {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Verification failed"})
		return
	}

	n, err := strconv.Atoi(challenge)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Challenge must be an integer"})
		return
	}
	c.String(http.StatusOK, strconv.Itoa(n))
}

// Handle routes one inbound webhook event: receipts are acknowledged,
// unknown shapes rejected, and messages run through contact creation, the
// AI gate, transcription, generation, and dispatch.
func (h *WebhookHandler) Handle(c *gin.Context) {
	var payload whatsapp.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid JSON provided"})
		return
	}

	if payload.IsStatusUpdate() {
		h.metrics.WebhookEvents.WithLabelValues("status_update").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	msg, ok := payload.FirstMessage()
	if !ok {
		h.metrics.WebhookEvents.WithLabelValues("unrecognized").Inc()
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not a WhatsApp API event"})
		return
	}

	ctx := c.Request.Context()
	sender := msg.From
	receiver := h.wa.PhoneNumberID()
	log := h.log.WebhookLogger(sender)

	exists, err := h.contacts.Exists(ctx, sender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to look up contact"})
		return
	}
	if !exists {
		// A concurrent delivery may win the insert; Create returning
		// (nil, nil) is the losing side and is fine.
		if _, err := h.contacts.Create(ctx, sender); err != nil {
			log.Error("contact creation failed").Err(err).Send()
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to insert new contact"})
			return
		}
	}

	contact, err := h.contacts.Get(ctx, sender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch contact"})
		return
	}

	// Text is persisted before the gate check so human-handled
	// conversations keep their history.
	if msg.Type == "text" && msg.Text != nil {
		if _, err := h.history.Append(ctx, sender, receiver, msg.Text.Body); err != nil {
			log.Error("inbound persist failed").Err(err).Send()
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to insert new message"})
			return
		}
	}

	if !contact.Engageable() {
		h.handleHumanEngaged(c, log, msg)
		return
	}

	var replyInput string
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not a WhatsApp API event"})
			return
		}
		replyInput = msg.Text.Body
	case "audio":
		if msg.Audio == nil {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Not a WhatsApp API event"})
			return
		}
		transcript, ok := h.transcribeVoiceNote(c, log, sender, msg.Audio.ID)
		if !ok {
			return
		}
		if _, err := h.history.Append(ctx, sender, receiver, transcript); err != nil {
			log.Error("transcript persist failed").Err(err).Send()
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to insert new message"})
			return
		}
		replyInput = transcript
	default:
		log.Warn("unsupported message type").Str("type", msg.Type).Send()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	reply, err := h.responder.Generate(ctx, sender, replyInput)
	if err != nil {
		log.Error("reply generation failed").Err(err).Send()
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to generate reply"})
		return
	}
	reply = whatsapp.FormatText(reply)

	if _, err := h.history.Append(ctx, receiver, sender, reply); err != nil {
		log.Error("reply persist failed").Err(err).Send()
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to insert the answer into the database"})
		return
	}

	if err := h.wa.SendText(ctx, sender, reply); err != nil {
		h.metrics.SendFailures.Inc()
		log.Error("outbound send failed").Err(err).Send()
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to send message"})
		return
	}

	h.metrics.RepliesGenerated.Inc()
	h.metrics.WebhookEvents.WithLabelValues("replied").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleHumanEngaged covers the operator-takeover branch: nothing automated
// happens, the operator is alerted. Voice notes are not persisted here; the
// operator sees them in the WhatsApp app directly.
func (h *WebhookHandler) handleHumanEngaged(c *gin.Context, log *logger.Logger, msg *whatsapp.Message) {
	body := ""
	if msg.Type == "text" && msg.Text != nil {
		body = msg.Text.Body
	} else {
		log.Warn("voice note skipped while human chat active").Send()
	}

	if h.alerts != nil {
		if err := h.alerts.SendHandoffAlert(msg.From, body); err != nil {
			log.Warn("handoff alert failed").Err(err).Send()
		}
	}

	h.metrics.WebhookEvents.WithLabelValues("human_handled").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// transcribeVoiceNote downloads and transcribes an audio message. On
// failure the user receives an apology, which is also written to history so
// the dashboard shows what happened; the request still returns ok.
func (h *WebhookHandler) transcribeVoiceNote(c *gin.Context, log *logger.Logger, sender, mediaID string) (string, bool) {
	ctx := c.Request.Context()

	audio, err := h.wa.DownloadMedia(ctx, mediaID)
	if err == nil {
		var transcript string
		transcript, err = h.transcriber.Transcribe(ctx, audio)
		if err == nil {
			return transcript, true
		}
	}

	if !errors.Is(err, transcribe.ErrTranscription) {
		log.Warn("voice note fetch failed").Err(err).Send()
	}
	h.metrics.TranscriptionFailures.Inc()

	if sendErr := h.wa.SendText(ctx, sender, apologyMessage); sendErr != nil {
		h.metrics.SendFailures.Inc()
		log.Error("apology send failed").Err(sendErr).Send()
	}
	if _, persistErr := h.history.Append(ctx, h.wa.PhoneNumberID(), sender, apologyMessage); persistErr != nil {
		log.Error("apology persist failed").Err(persistErr).Send()
	}

	h.metrics.WebhookEvents.WithLabelValues("transcription_failed").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
	return "", false
}
