package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Encoded is a composite value (list or object) persisted as JSON text.
//
// Reads are lenient: stored text that does not decode into T is kept verbatim
// in Raw and reported by Malformed, and it marshals back out as a plain JSON
// string instead of failing the whole record.
type Encoded[T any] struct {
	Decoded T
	Raw     string
	Valid   bool

	malformed bool
}

// StringList is an ordered list of strings stored as JSON text.
type StringList = Encoded[[]string]

// StringMap is a string-keyed mapping stored as JSON text.
type StringMap = Encoded[map[string]string]

// NewEncoded wraps a decoded value.
func NewEncoded[T any](v T) Encoded[T] {
	return Encoded[T]{Decoded: v, Valid: true}
}

// Malformed reports whether the stored text failed to decode.
func (e Encoded[T]) Malformed() bool {
	return e.malformed
}

// Scan implements sql.Scanner. A NULL column yields an invalid value; text that
// is not valid JSON for T is retained in Raw rather than returned as an error.
func (e *Encoded[T]) Scan(src any) error {
	var zero T
	e.Decoded, e.Raw, e.Valid, e.malformed = zero, "", false, false

	var text string
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("scan encoded field: unsupported type %T", src)
	}

	e.Valid = true
	e.Raw = text
	decoded, err := DecodeComposite[T](text)
	if err != nil {
		e.malformed = true
		return nil
	}
	e.Decoded = decoded
	return nil
}

// Value implements driver.Valuer.
func (e Encoded[T]) Value() (driver.Value, error) {
	if !e.Valid {
		return nil, nil
	}
	if e.malformed {
		return e.Raw, nil
	}
	return EncodeComposite(e.Decoded)
}

// MarshalJSON emits the decoded value, null, or the raw text when malformed.
func (e Encoded[T]) MarshalJSON() ([]byte, error) {
	switch {
	case !e.Valid:
		return []byte("null"), nil
	case e.malformed:
		return json.Marshal(e.Raw)
	default:
		return json.Marshal(e.Decoded)
	}
}

// UnmarshalJSON accepts the shapes produced by MarshalJSON.
func (e *Encoded[T]) UnmarshalJSON(data []byte) error {
	var zero T
	e.Decoded, e.Raw, e.Valid, e.malformed = zero, "", false, false
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err == nil {
		e.Decoded, e.Valid = v, true
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal encoded field: %w", err)
	}
	e.Raw, e.Valid, e.malformed = raw, true, true
	return nil
}

// EncodeComposite serializes a list or mapping to its canonical JSON text.
// Map keys are emitted in sorted order, so equal values encode identically.
// Strings that are not valid UTF-8 are rejected, since JSON would replace
// their bytes and the value would not decode back to itself.
func EncodeComposite(v any) (string, error) {
	if err := checkUTF8(v); err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode composite: %w", err)
	}
	return string(data), nil
}

// DecodeComposite parses text produced by EncodeComposite.
func DecodeComposite[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode composite: %w", err)
	}
	return v, nil
}

// DecodeTags decodes a stored tag list. NULL or malformed text yields an empty list.
func DecodeTags(text *string) []string {
	if text == nil {
		return []string{}
	}
	tags, err := DecodeComposite[[]string](*text)
	if err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func checkUTF8(v any) error {
	switch val := v.(type) {
	case string:
		if !utf8.ValidString(val) {
			return fmt.Errorf("encode composite: %q is not valid UTF-8", val)
		}
	case []string:
		for _, s := range val {
			if err := checkUTF8(s); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range val {
			if err := checkUTF8(item); err != nil {
				return err
			}
		}
	case map[string]string:
		for k, s := range val {
			if err := checkUTF8(k); err != nil {
				return err
			}
			if err := checkUTF8(s); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, item := range val {
			if err := checkUTF8(k); err != nil {
				return err
			}
			if err := checkUTF8(item); err != nil {
				return err
			}
		}
	}
	return nil
}
