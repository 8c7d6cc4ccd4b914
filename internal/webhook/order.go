package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseError reports a payload that is not a usable order.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid order payload: %s: %v", e.Reason, e.Err)
	}
	return "invalid order payload: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Attribute struct {
	Name  string
	Value string
}

// Order is the subset of the order webhook payload used for correlation.
type Order struct {
	ID             *string
	OrderNumber    *string
	NoteAttributes []Attribute
	Attributes     []Attribute
}

type rawOrder struct {
	ID             json.RawMessage `json:"id"`
	OrderNumber    json.RawMessage `json:"order_number"`
	Name           json.RawMessage `json:"name"`
	NoteAttributes json.RawMessage `json:"note_attributes"`
	Attributes     json.RawMessage `json:"attributes"`
}

func ParseOrder(body []byte) (*Order, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Reason: "body is not a JSON object"}
	}

	var raw rawOrder
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &ParseError{Reason: "malformed JSON", Err: err}
	}

	id, err := scalarString(raw.ID)
	if err != nil {
		return nil, &ParseError{Reason: "id", Err: err}
	}
	number, err := scalarString(raw.OrderNumber)
	if err != nil {
		return nil, &ParseError{Reason: "order_number", Err: err}
	}
	if number == nil {
		if number, err = scalarString(raw.Name); err != nil {
			return nil, &ParseError{Reason: "name", Err: err}
		}
	}

	notes, err := parseAttributes(raw.NoteAttributes)
	if err != nil {
		return nil, &ParseError{Reason: "note_attributes", Err: err}
	}
	attrs, err := parseAttributes(raw.Attributes)
	if err != nil {
		return nil, &ParseError{Reason: "attributes", Err: err}
	}

	return &Order{
		ID:             id,
		OrderNumber:    number,
		NoteAttributes: notes,
		Attributes:     attrs,
	}, nil
}

// scalarString accepts a JSON string or number. Absent and null yield nil.
func scalarString(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return &t, nil
	case json.Number:
		s := t.String()
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, err
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("expected string or number, got %T", v)
	}
}

type rawAttribute struct {
	Name  *string `json:"name"`
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

// parseAttributes accepts a list of {name,value} or {key,value} objects.
func parseAttributes(raw json.RawMessage) ([]Attribute, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected a list: %w", err)
	}

	out := make([]Attribute, 0, len(items))
	for i, item := range items {
		var ra rawAttribute
		if err := json.Unmarshal(item, &ra); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		name := ra.Name
		if name == nil {
			name = ra.Key
		}
		if name == nil {
			return nil, fmt.Errorf("entry %d: missing name", i)
		}
		a := Attribute{Name: *name}
		if ra.Value != nil {
			a.Value = *ra.Value
		}
		out = append(out, a)
	}
	return out, nil
}

// ClientCartID looks for attribute name in the note attributes and then in
// the line-level attributes. Empty values are skipped.
func (o *Order) ClientCartID(name string) (string, bool) {
	for _, list := range [][]Attribute{o.NoteAttributes, o.Attributes} {
		for _, a := range list {
			if a.Name == name && a.Value != "" {
				return a.Value, true
			}
		}
	}
	return "", false
}
