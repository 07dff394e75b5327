package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// RouteParams are the path parameters of a navigation event. Hosts send
// numbers and booleans as often as strings; every scalar decodes to its text
// form and null drops the key.
type RouteParams map[string]string

func (p *RouteParams) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}

	params := make(RouteParams, len(raw))
	for key, value := range raw {
		text, present, err := scalarText(value)
		if err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}
		if present {
			params[key] = text
		}
	}
	*p = params
	return nil
}

// RouteQuery is the query of a navigation event. A key maps to one scalar or
// to an array of them; repeated values keep their order.
type RouteQuery url.Values

func (q *RouteQuery) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*q = nil
		return nil
	}

	query := make(RouteQuery, len(raw))
	for key, value := range raw {
		values, err := queryValues(value)
		if err != nil {
			return fmt.Errorf("query %q: %w", key, err)
		}
		query[key] = values
	}
	*q = query
	return nil
}

// Values returns q as url.Values
func (q RouteQuery) Values() url.Values {
	return url.Values(q)
}

func queryValues(value json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		text, _, err := scalarText(trimmed)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		text, present, err := scalarText(item)
		if err != nil {
			return nil, err
		}
		if present {
			values = append(values, text)
		}
	}
	return values, nil
}

// scalarText renders a JSON value as route text. Objects and arrays keep
// their compact JSON form.
func scalarText(value json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(value)
	switch {
	case len(trimmed) == 0:
		return "", false, fmt.Errorf("empty value")
	case bytes.Equal(trimmed, []byte("null")):
		return "", false, nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case trimmed[0] == '{' || trimmed[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", false, err
		}
		return buf.String(), true, nil
	default:
		if !json.Valid(trimmed) {
			return "", false, fmt.Errorf("invalid value %s", trimmed)
		}
		return string(trimmed), true, nil
	}
}
