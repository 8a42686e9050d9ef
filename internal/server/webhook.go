package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/almalabs/wabridge/internal/agent"
	"github.com/almalabs/wabridge/internal/tracing"
	"github.com/almalabs/wabridge/internal/whatsapp"
)

// ackBody is the fixed acknowledgment WhatsApp expects. Anything else makes
// the platform re-deliver the event.
const ackBody = "EVENT_RECEIVED"

// handleVerify answers the webhook verification handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && token == s.cfg.WhatsApp.VerifyToken {
		s.logger.Info().Msg("Webhook verification succeeded")
		writeText(w, http.StatusOK, challenge)
		return
	}

	s.logger.Warn().Str("mode", mode).Msg("Webhook verification failed")
	writeText(w, http.StatusForbidden, "Verification failed")
}

// handleReceive accepts one webhook delivery. Every parseable body is
// acknowledged with 200 no matter how far the pipeline gets: a failure on our
// side must not make the platform retry the delivery. Only a body that is not
// JSON at all gets a 500; valid JSON whose fields don't fit the envelope is
// handled like any other delivery without an actionable message.
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read webhook body")
		s.metrics.WebhookDeliveriesTotal.WithLabelValues("parse_error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid JSON body"})
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		if !json.Valid(body) {
			s.logger.Error().Err(err).Msg("Failed to parse webhook body")
			s.metrics.WebhookDeliveriesTotal.WithLabelValues("parse_error").Inc()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid JSON body"})
			return
		}
		// Mismatched field types: the fields that did decode flow on to the
		// normalizer, which treats whatever is missing as not actionable.
		s.logger.Warn().Err(err).Msg("Webhook body does not fit the envelope shape")
	}

	ctx := tracing.NewRequestContext(r.Context())
	outcome := s.processDelivery(ctx, payload)
	s.metrics.WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()

	writeText(w, http.StatusOK, ackBody)
}

// processDelivery runs the inbound pipeline for one delivery:
// normalize → read receipt → agent → extract → relay. Each hop past
// normalization is best effort; the returned outcome label records where the
// pipeline stopped.
func (s *Server) processDelivery(ctx context.Context, payload whatsapp.WebhookPayload) string {
	start := time.Now()
	defer func() {
		s.metrics.WebhookProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	log := s.logger.With().Str("trace_id", tracing.GetTraceID(ctx)).Logger()

	msg, ok := s.normalizer.Normalize(payload)
	if !ok {
		log.Info().Msg("Delivery carries no actionable message")
		return "no_message"
	}

	s.metrics.MessagesNormalizedTotal.Inc()
	log = log.With().Str("sender", msg.Sender).Logger()
	log.Info().Msg("Processing inbound message")

	s.sendTypingIndicator(ctx, log, msg)

	if s.agent == nil {
		log.Warn().Msg("Agent not configured, acknowledging without reply")
		return "agent_unconfigured"
	}

	agentStart := time.Now()
	response, err := s.agent.Send(ctx, msg.Sender, msg.Text)
	s.metrics.AgentCallDuration.Observe(time.Since(agentStart).Seconds())
	if err != nil {
		s.metrics.AgentCallsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("Agent call failed")
		return "agent_error"
	}
	s.metrics.AgentCallsTotal.WithLabelValues("success").Inc()

	text, ok := agent.ExtractText(response)
	if !ok {
		log.Warn().Msg("Agent response carried no reply text")
		return "no_reply"
	}

	if s.platform == nil {
		log.Info().Msg("Outbound relay not configured, reply discarded")
		return "relay_disabled"
	}

	if err := s.platform.SendText(ctx, msg.Sender, text); err != nil {
		s.metrics.PlatformSendsTotal.WithLabelValues("text", "error").Inc()
		log.Error().Err(err).Msg("Failed to relay reply to WhatsApp")
		return "relay_failed"
	}

	s.metrics.PlatformSendsTotal.WithLabelValues("text", "success").Inc()
	log.Info().Msg("Reply relayed to sender")
	return "relayed"
}

// sendTypingIndicator marks the inbound message read so the sender sees a
// typing indicator while the agent works. Failures are swallowed entirely.
func (s *Server) sendTypingIndicator(ctx context.Context, log zerolog.Logger, msg whatsapp.CanonicalMessage) {
	if s.platform == nil || msg.MessageID == "" {
		return
	}
	if err := s.platform.MarkRead(ctx, msg.MessageID); err != nil {
		log.Debug().Err(err).Msg("Read receipt failed")
	}
}
