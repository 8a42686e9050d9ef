package whatsapp

import (
	"github.com/rs/zerolog"
)

// objectKind is the expected top-level kind marker on webhook deliveries.
const objectKind = "whatsapp_business_account"

// Normalizer maps raw webhook payloads to canonical messages.
type Normalizer struct {
	logger zerolog.Logger
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize extracts the first actionable message from a webhook delivery.
// It scans entries, changes and messages in order and returns on the first
// text body or button-reply id it finds. Deliveries that carry no actionable
// message (status updates, unsupported media types, empty envelopes) yield
// ok=false, which is a normal outcome, not an error.
func (n *Normalizer) Normalize(payload WebhookPayload) (CanonicalMessage, bool) {
	if payload.Object != objectKind {
		n.logger.Warn().Str("object", payload.Object).Msg("Unexpected payload kind marker")
	}

	if len(payload.Entry) == 0 {
		n.logger.Warn().Msg("No entries in payload")
		return CanonicalMessage{}, false
	}

	for _, entry := range payload.Entry {
		if len(entry.Changes) == 0 {
			n.logger.Warn().Str("entry_id", entry.ID).Msg("No changes in entry")
			continue
		}

		for _, change := range entry.Changes {
			if change.Field != "messages" {
				n.logger.Debug().Str("field", change.Field).Msg("Ignoring non-message change")
				continue
			}

			if len(change.Value.Messages) == 0 {
				n.logger.Debug().Msg("No messages in change value")
				continue
			}

			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					n.logger.Debug().Str("type", msg.Type).Msg("Ignoring message without sender")
					continue
				}

				if text, ok := messageText(msg); ok {
					n.logger.Debug().
						Str("sender", msg.From).
						Str("type", msg.Type).
						Msg("Extracted canonical message")
					return CanonicalMessage{
						Sender:    msg.From,
						Text:      text,
						MessageID: msg.ID,
					}, true
				}

				n.logger.Debug().Str("type", msg.Type).Str("sender", msg.From).Msg("Ignoring message")
			}
		}
	}

	return CanonicalMessage{}, false
}

// messageText resolves the forwardable text of one inbound message. For
// button replies the machine id is forwarded as if the user had typed it;
// the display title is discarded.
func messageText(msg Message) (string, bool) {
	switch msg.Type {
	case "text":
		if msg.Text != nil && msg.Text.Body != "" {
			return msg.Text.Body, true
		}
	case "interactive":
		if msg.Interactive != nil &&
			msg.Interactive.Type == "button_reply" &&
			msg.Interactive.ButtonReply != nil &&
			msg.Interactive.ButtonReply.ID != "" {
			return msg.Interactive.ButtonReply.ID, true
		}
	}
	return "", false
}
