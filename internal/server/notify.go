package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/almalabs/wabridge/internal/whatsapp"
)

// taskNotificationSchema validates the outbound notification request body
// before any field is interpreted.
const taskNotificationSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["task_id", "notification_type", "to", "body", "actions"],
	"properties": {
		"task_id": {"type": "string", "minLength": 1},
		"notification_type": {"type": "string", "minLength": 1},
		"to": {"type": "integer"},
		"body": {"type": "string", "minLength": 1},
		"footer": {"type": "string"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "title"],
				"properties": {
					"id": {"type": "string"},
					"title": {"type": "string"}
				}
			}
		}
	}
}`

var taskNotificationSchemaLoader = gojsonschema.NewStringLoader(taskNotificationSchema)

// TaskNotificationRequest asks the bridge to push an interactive notification
// to a phone number, bypassing the agent.
type TaskNotificationRequest struct {
	TaskID           string       `json:"task_id"`
	NotificationType string       `json:"notification_type"`
	To               int64        `json:"to"`
	Body             string       `json:"body"`
	Footer           string       `json:"footer,omitempty"`
	Actions          []TaskAction `json:"actions"`
}

// TaskAction is one reply option offered with the notification.
type TaskAction struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaskNotificationResponse echoes the accepted notification.
type TaskNotificationResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id"`
	PhoneNumber int64  `json:"phone_number"`
}

// handleTaskNotification validates and relays one outbound notification.
func (s *Server) handleTaskNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.metrics.NotificationRequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	if err := validateTaskNotification(body); err != nil {
		s.logger.Warn().Err(err).Msg("Task notification failed schema validation")
		s.metrics.NotificationRequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var req TaskNotificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.metrics.NotificationRequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if len(req.Actions) == 0 || len(req.Actions) > 3 {
		s.logger.Warn().Int("actions", len(req.Actions)).Str("task_id", req.TaskID).Msg("Invalid action count")
		s.metrics.NotificationRequestsTotal.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "actions must contain between 1 and 3 entries",
		})
		return
	}

	if s.platform == nil {
		s.logger.Error().Str("task_id", req.TaskID).Msg("Task notification rejected, WhatsApp API not configured")
		s.metrics.NotificationRequestsTotal.WithLabelValues("unconfigured").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "WhatsApp API is not configured",
		})
		return
	}

	buttons := make([]whatsapp.ReplyButton, 0, len(req.Actions))
	for _, action := range req.Actions {
		buttons = append(buttons, whatsapp.ReplyButton{ID: action.ID, Title: action.Title})
	}

	recipient := strconv.FormatInt(req.To, 10)

	if err := s.platform.SendInteractive(r.Context(), recipient, req.Body, req.Footer, buttons); err != nil {
		s.metrics.PlatformSendsTotal.WithLabelValues("interactive", "error").Inc()
		s.metrics.NotificationRequestsTotal.WithLabelValues("send_error").Inc()
		s.logger.Error().Err(err).Str("task_id", req.TaskID).Msg("Failed to send task notification")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to send notification",
		})
		return
	}

	s.metrics.PlatformSendsTotal.WithLabelValues("interactive", "success").Inc()
	s.metrics.NotificationRequestsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("task_id", req.TaskID).Str("to", recipient).Msg("Task notification sent")

	writeJSON(w, http.StatusOK, TaskNotificationResponse{
		Success:     true,
		Message:     "notification sent",
		TaskID:      req.TaskID,
		PhoneNumber: req.To,
	})
}

// validateTaskNotification checks the raw body against the notification schema.
func validateTaskNotification(body []byte) error {
	result, err := gojsonschema.Validate(taskNotificationSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &schemaError{details: msgs}
	}
	return nil
}

type schemaError struct {
	details []string
}

func (e *schemaError) Error() string {
	return "invalid notification request: " + strings.Join(e.details, "; ")
}
