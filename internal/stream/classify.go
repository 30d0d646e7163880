package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raphaelgruber/tripchat/internal/models"
)

// Event types announced by "event:" lines that change classification.
const (
	eventSuggestions = "suggestions"
	eventUIComponent = "ui_component"
)

var errNullRecord = errors.New("null record")

// classify turns one parsed data line into an event. A nil event with a nil
// error is a classification miss; a non-nil error means the record is
// malformed and must be skipped.
func classify(eventType string, data []byte) (Event, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	if bytes.Equal(data, []byte("null")) {
		return nil, errNullRecord
	}

	isArray := data[0] == '['
	var obj map[string]json.RawMessage
	if data[0] == '{' {
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
	}

	switch eventType {
	case eventSuggestions:
		return classifySuggestionsEvent(data, isArray, obj)
	case eventUIComponent:
		fields := obj
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
		return Payload{Data: UIComponent{Fields: fields}}, nil
	}

	if isArray {
		list, err := listOf[models.Suggestion](data)
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		return Payload{Data: Suggestions{Suggestions: list}}, nil
	}
	if obj == nil {
		// Scalars carry nothing we know how to use.
		return nil, nil
	}
	return classifyObject(obj)
}

func classifySuggestionsEvent(data []byte, isArray bool, obj map[string]json.RawMessage) (Event, error) {
	var (
		list []models.Suggestion
		err  error
	)
	switch {
	case isArray:
		list, err = listOf[models.Suggestion](data)
	case obj != nil:
		list, err = listOf[models.Suggestion](obj["suggestions"])
	}
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	if list == nil {
		list = []models.Suggestion{}
	}
	return Payload{Data: Suggestions{Suggestions: list}}, nil
}

func classifyObject(obj map[string]json.RawMessage) (Event, error) {
	if raw, ok := obj["content"]; ok {
		var content string
		if err := decodeOptional(raw, &content); err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
		return Token{Content: content}, nil
	}

	if raw, ok := obj["steps"]; ok {
		var ev Thinking
		if err := decodeOptional(raw, &ev.Steps); err != nil {
			return nil, fmt.Errorf("steps: %w", err)
		}
		if err := decodeOptional(obj["action"], &ev.Action); err != nil {
			return nil, fmt.Errorf("action: %w", err)
		}
		return ev, nil
	}

	var typ string
	_ = decodeOptional(obj["type"], &typ)

	switch PayloadType(typ) {
	case PayloadFlightCards:
		flights, err := listOf[models.FlightCard](obj["data"])
		if err != nil {
			return nil, fmt.Errorf("flight cards: %w", err)
		}
		suggestions, err := listOf[models.Suggestion](obj["suggestions"])
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		return Payload{Data: FlightCards{Flights: flights, Suggestions: suggestions}}, nil

	case PayloadItinerary:
		var p Itinerary
		if err := objectOf(obj["data"], &p.Itinerary); err != nil {
			return nil, fmt.Errorf("itinerary: %w", err)
		}
		if err := objectOf(obj["grounding"], &p.Grounding); err != nil {
			return nil, fmt.Errorf("grounding: %w", err)
		}
		suggestions, err := listOf[models.Suggestion](obj["suggestions"])
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		p.Suggestions = suggestions
		return Payload{Data: p}, nil

	case PayloadSuggestions:
		src := obj["suggestions"]
		if truthy(obj["data"]) {
			src = obj["data"]
		}
		list, err := listOf[models.Suggestion](src)
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		return Payload{Data: Suggestions{Suggestions: list}}, nil

	case PayloadTripSaved:
		return Payload{Data: TripSaved{Fields: obj}}, nil
	}

	if raw, ok := obj["session_id"]; ok {
		var ev Done
		if err := decodeOptional(raw, &ev.SessionID); err != nil {
			// Some backends send numeric ids.
			ev.SessionID = string(bytes.TrimSpace(raw))
		}
		suggestions, err := listOf[models.Suggestion](obj["suggestions"])
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		ev.Suggestions = suggestions
		return ev, nil
	}

	if raw := obj["error"]; truthy(raw) {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(bytes.TrimSpace(raw))
		}
		return Error{Message: msg}, nil
	}

	if raw := obj["suggestions"]; truthy(raw) {
		list, err := listOf[models.Suggestion](raw)
		if err != nil {
			return nil, fmt.Errorf("suggestions: %w", err)
		}
		return Payload{Data: Suggestions{Suggestions: list}}, nil
	}

	return nil, nil
}

// listOf decodes raw as a list when it is a JSON array. Anything else yields
// nil, which callers treat as "absent". An empty array yields an empty,
// non-nil slice.
func listOf[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// objectOf decodes raw into *dst when raw is a JSON object, leaving *dst nil
// otherwise.
func objectOf[T any](raw json.RawMessage, dst **T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// decodeOptional decodes raw into dst unless it is absent or null.
func decodeOptional(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// truthy reports whether raw is present and not one of null, false, 0 or "".
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil && n == 0 {
		return false
	}
	return true
}
