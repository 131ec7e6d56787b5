package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FRI2020/talk-trace/internal/config"
)

func testConfig() config.WhatsAppConfig {
	return config.WhatsAppConfig{
		AccessToken:   "test-token",
		GraphVersion:  "v21.0",
		PhoneNumberID: "10000000001",
	}
}

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload SendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"messages":[{"id":"wamid.test"}]}`)
	}))
	defer server.Close()

	client := NewClient(testConfig())
	client.BaseURL = server.URL

	if err := client.SendText(context.Background(), "15551234", "hello *there*"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if gotPath != "/v21.0/10000000001/messages" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected auth header %s", gotAuth)
	}
	if gotPayload.MessagingProduct != "whatsapp" || gotPayload.To != "15551234" {
		t.Errorf("unexpected payload %+v", gotPayload)
	}
	if gotPayload.Text.Body != "hello *there*" || gotPayload.Text.PreviewURL {
		t.Errorf("unexpected text payload %+v", gotPayload.Text)
	}
}

func TestSendTextVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(testConfig())
	client.BaseURL = server.URL

	if err := client.SendText(context.Background(), "15551234", "hi"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestDownloadMedia(t *testing.T) {
	audio := []byte("OggS fake audio bytes")

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v21.0/MEDIA123":
			fmt.Fprintf(w, `{"url":%q}`, server.URL+"/download/MEDIA123")
		case "/download/MEDIA123":
			w.Write(audio)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig())
	client.BaseURL = server.URL

	got, err := client.DownloadMedia(context.Background(), "MEDIA123")
	if err != nil {
		t.Fatalf("DownloadMedia failed: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("unexpected media bytes: %q", got)
	}
}

func TestDownloadMediaMissingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(testConfig())
	client.BaseURL = server.URL

	if _, err := client.DownloadMedia(context.Background(), "MEDIA123"); err == nil {
		t.Fatal("expected error when metadata has no url")
	}
}

func TestFormatText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"**bold** words", "*bold* words"},
		{"a **b** and **c**", "a *b* and *c*"},
		{"cited【4:0†source】 text", "cited text"},
		{"  padded  ", "padded"},
	}

	for _, tc := range cases {
		if got := FormatText(tc.in); got != tc.want {
			t.Errorf("FormatText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWebhookPayloadClassification(t *testing.T) {
	statusPayload := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"value": {"statuses": [{"id": "wamid.x", "status": "delivered"}]}}]}]
	}`
	messagePayload := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"value": {
			"messages": [{"from": "15551234", "type": "text", "text": {"body": "hi"}}]
		}}]}]
	}`

	var p WebhookPayload
	if err := json.Unmarshal([]byte(statusPayload), &p); err != nil {
		t.Fatal(err)
	}
	if !p.IsStatusUpdate() {
		t.Error("status payload not recognized")
	}
	if _, ok := p.FirstMessage(); ok {
		t.Error("status payload should not yield a message")
	}

	p = WebhookPayload{}
	if err := json.Unmarshal([]byte(messagePayload), &p); err != nil {
		t.Fatal(err)
	}
	if p.IsStatusUpdate() {
		t.Error("message payload misclassified as status update")
	}
	msg, ok := p.FirstMessage()
	if !ok {
		t.Fatal("message payload not recognized")
	}
	if msg.From != "15551234" || msg.Text.Body != "hi" {
		t.Errorf("unexpected message %+v", msg)
	}

	p = WebhookPayload{}
	if err := json.Unmarshal([]byte(`{"unexpected":"shape"}`), &p); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.FirstMessage(); ok {
		t.Error("unrecognized payload should not yield a message")
	}
}
