package api_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/FRI2020/talk-trace/internal/api"
	"github.com/FRI2020/talk-trace/internal/logger"
	"github.com/FRI2020/talk-trace/internal/metrics"
	"github.com/FRI2020/talk-trace/internal/middleware"
	"github.com/FRI2020/talk-trace/internal/models"
	"github.com/FRI2020/talk-trace/internal/store"
	"github.com/FRI2020/talk-trace/internal/transcribe"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	testAppSecret   = "app-secret"
	testVerifyToken = "verify-me"
	testOwnID       = "10000000001"
)

type fakeContacts struct {
	contacts  map[string]*models.Contact
	createErr error
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{contacts: make(map[string]*models.Contact)}
}

func (f *fakeContacts) Exists(_ context.Context, phoneNumber string) (bool, error) {
	_, ok := f.contacts[phoneNumber]
	return ok, nil
}

func (f *fakeContacts) Create(_ context.Context, phoneNumber string) (*models.Contact, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.contacts[phoneNumber]; ok {
		return nil, nil
	}
	c := &models.Contact{
		ID:          fmt.Sprintf("id-%s", phoneNumber),
		PhoneNumber: phoneNumber,
		AIActive:    1,
		Status:      1,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.contacts[phoneNumber] = c
	return c, nil
}

func (f *fakeContacts) Get(_ context.Context, phoneNumber string) (*models.Contact, error) {
	c, ok := f.contacts[phoneNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContacts) UpdateFlags(_ context.Context, phoneNumber string, aiActive, status *int) (*models.Contact, error) {
	c, ok := f.contacts[phoneNumber]
	if !ok {
		return nil, store.ErrNotFound
	}
	if aiActive != nil {
		c.AIActive = *aiActive
	}
	if status != nil {
		c.Status = *status
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (f *fakeContacts) ListPhoneNumbers(_ context.Context) ([]string, error) {
	numbers := []string{}
	for n := range f.contacts {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers, nil
}

type fakeHistory struct {
	rows      []models.Message
	appendErr error
}

func (f *fakeHistory) Append(_ context.Context, sender, receiver, body string) (*models.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	m := models.Message{
		ID:        fmt.Sprintf("msg-%d", len(f.rows)),
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		CreatedAt: time.Now().Add(time.Duration(len(f.rows)) * time.Millisecond),
	}
	f.rows = append(f.rows, m)
	return &m, nil
}

func (f *fakeHistory) Conversation(_ context.Context, partyA, partyB string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.rows {
		if (m.Sender == partyA && m.Receiver == partyB) || (m.Sender == partyB && m.Receiver == partyA) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeHistory) DistinctSenders(_ context.Context, ownID string) ([]string, error) {
	seen := map[string]bool{}
	var senders []string
	for _, m := range f.rows {
		if m.Sender != ownID && !seen[m.Sender] {
			seen[m.Sender] = true
			senders = append(senders, m.Sender)
		}
	}
	sort.Strings(senders)
	return senders, nil
}

type sentMessage struct {
	To   string
	Text string
}

type fakeDispatcher struct {
	sent    []sentMessage
	sendErr error
	media   map[string][]byte
}

func (f *fakeDispatcher) SendText(_ context.Context, to, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: text})
	return nil
}

func (f *fakeDispatcher) DownloadMedia(_ context.Context, mediaID string) ([]byte, error) {
	audio, ok := f.media[mediaID]
	if !ok {
		return nil, errors.New("media not found")
	}
	return audio, nil
}

func (f *fakeDispatcher) PhoneNumberID() string { return testOwnID }

type fakeResponder struct {
	reply  string
	err    error
	inputs []string
}

func (f *fakeResponder) Generate(_ context.Context, waID, messageBody string) (string, error) {
	f.inputs = append(f.inputs, messageBody)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte) (string, error) {
	if f.err != nil {
		return "", fmt.Errorf("%w: %v", transcribe.ErrTranscription, f.err)
	}
	return f.text, nil
}

type fixture struct {
	router      *gin.Engine
	contacts    *fakeContacts
	history     *fakeHistory
	dispatcher  *fakeDispatcher
	responder   *fakeResponder
	transcriber *fakeTranscriber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		contacts:    newFakeContacts(),
		history:     &fakeHistory{},
		dispatcher:  &fakeDispatcher{media: map[string][]byte{}},
		responder:   &fakeResponder{reply: "Automated reply"},
		transcriber: &fakeTranscriber{text: "transcribed text"},
	}

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	m := metrics.New(prometheus.NewRegistry())

	webhookHandler := api.NewWebhookHandler(
		f.contacts, f.history, f.responder, f.transcriber, f.dispatcher,
		nil, m, log, testVerifyToken,
	)
	chatHandler := api.NewChatHandler(f.contacts, f.history, f.dispatcher, log)

	router := gin.New()
	router.GET("/webhook", webhookHandler.Verify)
	router.POST("/webhook", middleware.VerifySignature(testAppSecret), webhookHandler.Handle)
	router.POST("/history", chatHandler.GetHistory)
	router.POST("/sending", chatHandler.SendAdminMessage)
	router.POST("/toggle-human-chat", chatHandler.ToggleHumanChat)
	router.GET("/contacts", chatHandler.GetContacts)

	f.router = router
	return f
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testAppSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (f *fixture) postWebhook(body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", signBody(body))
	f.router.ServeHTTP(w, req)
	return w
}

func textPayload(from, body string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"value": {
			"contacts": [{"profile": {"name": "Tester"}, "wa_id": %q}],
			"messages": [{"from": %q, "id": "wamid.1", "type": "text", "text": {"body": %q}}]
		}}]}]
	}`, from, from, body))
}

func audioPayload(from, mediaID string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"value": {
			"contacts": [{"profile": {"name": "Tester"}, "wa_id": %q}],
			"messages": [{"from": %q, "id": "wamid.2", "type": "audio",
				"audio": {"id": %q, "mime_type": "audio/ogg; codecs=opus"}}]
		}}]}]
	}`, from, from, mediaID))
}

func statusPayload() []byte {
	return []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"value": {
			"statuses": [{"id": "wamid.3", "status": "delivered", "recipient_id": "15551234"}]
		}}]}]
	}`)
}
