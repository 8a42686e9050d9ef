package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractText resolves the reply text from an agent response. Agents have
// shipped several response shapes over time and all of them stay supported:
//
//  1. An ordered list of event objects, each possibly carrying
//     content.parts[].text — every non-blank text is collected in order and
//     joined with newlines.
//  2. A single object, checked key by key: newMessage.parts[0].text, then
//     response (a plain string or an object with a text field), then a
//     top-level text, then a top-level message.
//  3. Anything else falls back to the JSON rendering of the whole response,
//     so the caller always has something to relay. Surfacing raw JSON to the
//     end user is the accepted trade-off here.
//
// ok=false means the response carried a recognized shape whose text slot was
// empty, or no response at all.
func ExtractText(agentResponse interface{}) (string, bool) {
	if agentResponse == nil {
		return "", false
	}

	if list, isList := agentResponse.([]interface{}); isList {
		if text, ok := extractFromList(list); ok {
			return text, true
		}
		return stringify(agentResponse), true
	}

	if obj, isObj := agentResponse.(map[string]interface{}); isObj {
		return extractFromObject(obj)
	}

	return stringify(agentResponse), true
}

// extractFromList collects content.parts[].text across a list of event
// objects, preserving source order.
func extractFromList(list []interface{}) (string, bool) {
	var parts []string

	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		content, ok := obj["content"].(map[string]interface{})
		if !ok {
			continue
		}
		contentParts, ok := content["parts"].([]interface{})
		if !ok {
			continue
		}
		for _, p := range contentParts {
			part, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			text, ok := part["text"].(string)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			parts = append(parts, strings.TrimSpace(text))
		}
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// extractFromObject checks the known single-object shapes in fixed priority
// order, first match wins.
func extractFromObject(obj map[string]interface{}) (string, bool) {
	if newMessage, ok := obj["newMessage"].(map[string]interface{}); ok {
		if parts, ok := newMessage["parts"].([]interface{}); ok && len(parts) > 0 {
			if part, ok := parts[0].(map[string]interface{}); ok {
				text, ok := part["text"].(string)
				return text, ok && text != ""
			}
			return "", false
		}
	}

	if response, present := obj["response"]; present {
		switch r := response.(type) {
		case string:
			return r, r != ""
		case map[string]interface{}:
			text, ok := r["text"].(string)
			return text, ok && text != ""
		}
	}

	if text, ok := obj["text"].(string); ok {
		return text, text != ""
	}

	if message, ok := obj["message"].(string); ok {
		return message, message != ""
	}

	return stringify(obj), true
}

// stringify renders an arbitrary response as JSON text.
func stringify(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
