package whatsapp

// Inbound webhook payload.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components

// WebhookPayload is the top-level webhook delivery.
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
	Value ChangeValue `json:"value"`
	Field string      `json:"field"`
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
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents a user's reply to an interactive message.
type InteractiveContent struct {
	Type        string          `json:"type"`
	ButtonReply *ButtonReplyMsg `json:"button_reply,omitempty"`
}

// ButtonReplyMsg carries the selected button.
type ButtonReplyMsg struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Status represents a message delivery status update.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Outbound send payloads.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/messages

// SendMessageRequest is the payload for sending a message.
type SendMessageRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextContent `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
}

// Interactive is the interactive-buttons message body.
type Interactive struct {
	Type   string             `json:"type"`
	Body   InteractiveBody    `json:"body"`
	Footer *InteractiveFooter `json:"footer,omitempty"`
	Action InteractiveAction  `json:"action"`
}

// InteractiveBody holds the main message text.
type InteractiveBody struct {
	Text string `json:"text"`
}

// InteractiveFooter holds the optional footer text.
type InteractiveFooter struct {
	Text string `json:"text"`
}

// InteractiveAction carries the reply buttons.
type InteractiveAction struct {
	Buttons []Button `json:"buttons"`
}

// Button wraps one reply button.
type Button struct {
	Type  string      `json:"type"`
	Reply ButtonReply `json:"reply"`
}

// ButtonReply is the id/title pair shown to the user.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MarkReadRequest marks an inbound message as read and shows a typing
// indicator while the agent prepares a reply.
type MarkReadRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	Status           string           `json:"status"`
	MessageID        string           `json:"message_id"`
	TypingIndicator  *TypingIndicator `json:"typing_indicator,omitempty"`
}

// TypingIndicator selects the typing indicator style.
type TypingIndicator struct {
	Type string `json:"type"`
}

// ReplyButton is one interactive reply option.
type ReplyButton struct {
	ID    string
	Title string
}

// CanonicalMessage is the normalized (sender, text) pair derived from a
// webhook delivery. MessageID is the platform id of the inbound message,
// used for read receipts.
type CanonicalMessage struct {
	Sender    string
	Text      string
	MessageID string
}
