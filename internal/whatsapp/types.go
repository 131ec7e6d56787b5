// Package whatsapp talks to the WhatsApp Business Cloud API and models its
// webhook payloads.
package whatsapp

// WebhookPayload is the top-level webhook delivery from the Cloud API.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message data.
type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

// Metadata about the receiving phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is a WhatsApp contact.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Message represents an incoming WhatsApp message.
type Message struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextContent  `json:"text,omitempty"`
	Audio     *AudioContent `json:"audio,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// AudioContent references a voice note by media id.
type AudioContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

// Status represents a message delivery status update.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// SendMessageRequest is the payload for sending a text message.
type SendMessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             SendText `json:"text"`
}

// SendText is the text body of an outbound message.
type SendText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// IsStatusUpdate reports whether the payload is a delivery/read receipt
// rather than a new message.
func (p *WebhookPayload) IsStatusUpdate() bool {
	return len(p.Entry) > 0 &&
		len(p.Entry[0].Changes) > 0 &&
		len(p.Entry[0].Changes[0].Value.Statuses) > 0
}

// FirstMessage extracts the first inbound message when the payload has the
// expected nested structure.
func (p *WebhookPayload) FirstMessage() (*Message, bool) {
	if p.Object == "" || len(p.Entry) == 0 ||
		len(p.Entry[0].Changes) == 0 ||
		len(p.Entry[0].Changes[0].Value.Messages) == 0 {
		return nil, false
	}
	return &p.Entry[0].Changes[0].Value.Messages[0], true
}
