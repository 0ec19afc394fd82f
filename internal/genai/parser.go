package genai

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"milo-interpreter/internal/common/errors"
)

// ParseJSON decodes a JSON object from raw model output. Markdown fences are
// stripped; if the rest still is not JSON, the first balanced {...} object is
// tried, tolerating prose around it. Anything else is a MALFORMED_RESPONSE.
func ParseJSON(raw string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := ParseInto(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.NewMalformedResponseError(raw, fmt.Errorf("response is null"))
	}
	return out, nil
}

// ParseInto is ParseJSON decoding into v.
func ParseInto(raw string, v interface{}) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return errors.NewMalformedResponseError(raw, fmt.Errorf("empty response"))
	}

	err := decodeExact(cleaned, v)
	if err == nil {
		return nil
	}

	if obj := extractJSONObject(cleaned); obj != "" && obj != cleaned {
		if err2 := decodeExact(obj, v); err2 == nil {
			return nil
		}
	}
	return errors.NewMalformedResponseError(raw, err)
}

// decodeExact decodes exactly one JSON value. Numbers land in interface
// values as json.Number so amounts keep every digit.
func decodeExact(data string, v interface{}) error {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}

// StripFences removes a leading ``` or ```json fence and a trailing ```.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the language tag on the opening line, if any.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[\"") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
			s = strings.TrimPrefix(s, "JSON")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced top-level object in s, or "".
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// StringField reads a string member, accepting numbers as their JSON text.
func StringField(obj map[string]interface{}, key string) (string, bool) {
	switch v := obj[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
