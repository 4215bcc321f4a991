package models

// Webhook event and message types the bot reacts to.
const (
	EventTypeMessage = "message"
	MessageTypeText  = "text"
)

// WebhookPayload is the LINE Messaging API callback body.
type WebhookPayload struct {
	Destination string         `json:"destination,omitempty"`
	Events      []WebhookEvent `json:"events"`
}

// WebhookEvent is a single event in a callback batch.
type WebhookEvent struct {
	Type       string        `json:"type"`
	Message    *EventMessage `json:"message,omitempty"`
	ReplyToken string        `json:"replyToken"`
	Source     EventSource   `json:"source"`
	Timestamp  int64         `json:"timestamp,omitempty"`
}

// EventMessage is the message body of a message event.
type EventMessage struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// EventSource identifies who sent the event.
type EventSource struct {
	Type   string `json:"type,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// IsText reports whether the event is a text message.
func (e WebhookEvent) IsText() bool {
	return e.Type == EventTypeMessage && e.Message != nil && e.Message.Type == MessageTypeText
}
