package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a JSON schema document and panics on error. Intended
// for package-level schema variables.
func MustCompile(name, document string) *Schema {
	s, err := Compile(name, document)
	if err != nil {
		panic(err)
	}
	return s
}

func Compile(name, document string) (*Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: schema}, nil
}

// Validate checks a decoded JSON value (maps, slices, strings, float64) or
// any Go value that marshals to JSON.
func (s *Schema) Validate(data interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", s.name, err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out, nil
}

// Check is Validate folded into a single error listing every violation.
func (s *Schema) Check(data interface{}) error {
	result, err := s.Validate(data)
	if err != nil {
		return err
	}
	if result.Valid {
		return nil
	}
	return fmt.Errorf("%s: %s", s.name, strings.Join(result.GetErrorMessages(), "; "))
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

var (
	suiAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	mimeTypePattern   = regexp.MustCompile(`^[a-z]+/[a-z0-9.+\-]+(;.*)?$`)
)

// MinAddressLength is the shortest string accepted as a literal address.
const MinAddressLength = 11

// LooksLikeAddress reports whether s is plausibly a literal chain address:
// 0x-prefixed hex longer than ten characters.
func LooksLikeAddress(s string) bool {
	return len(s) >= MinAddressLength && suiAddressPattern.MatchString(s)
}

// IsAudioMIMEType accepts audio/* types, with optional parameters such as
// "audio/webm;codecs=opus".
func IsAudioMIMEType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeTypePattern.MatchString(mimeType) && strings.HasPrefix(mimeType, "audio/")
}
