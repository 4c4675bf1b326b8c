// Package params reads typed values out of loosely typed action parameters.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
)

// Params is the untyped parameter mapping handed to an action.
type Params map[string]any

// StringOptions controls ReadString. The zero value reads an optional,
// trimmed, non-empty string.
type StringOptions struct {
	Required   bool
	AllowEmpty bool
	// NoTrim keeps surrounding whitespace, for message bodies. A
	// whitespace-only value still counts as empty.
	NoTrim bool
}

// MaxInteger bounds integer reads so they convert to int without overflow.
const MaxInteger = math.MaxInt32

type NumberOptions struct {
	Required bool
	Integer  bool
}

// ReadString returns the string stored under key. ok is false when the key is
// absent or blank and not required.
func ReadString(p Params, key string, opts StringOptions) (string, bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		if opts.Required {
			return "", false, &actionerr.MissingParameterError{Field: key}
		}
		return "", false, nil
	}
	value, err := stringValue(key, raw)
	if err != nil {
		return "", false, err
	}
	if !opts.NoTrim {
		value = strings.TrimSpace(value)
	}
	if strings.TrimSpace(value) == "" && !opts.AllowEmpty {
		if opts.Required {
			return "", false, &actionerr.MissingParameterError{Field: key}
		}
		return "", false, nil
	}
	return value, true, nil
}

// FirstString returns the first usable string found under keys, in order.
// A missing value is reported against name.
func FirstString(p Params, name string, keys []string, opts StringOptions) (string, bool, error) {
	lookup := opts
	lookup.Required = false
	for _, key := range keys {
		value, ok, err := ReadString(p, key, lookup)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	if opts.Required {
		return "", false, &actionerr.MissingParameterError{Field: name}
	}
	return "", false, nil
}

// ReadNumber parses a numeric value given as a JSON number or a string.
func ReadNumber(p Params, key string, opts NumberOptions) (float64, bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		if opts.Required {
			return 0, false, &actionerr.MissingParameterError{Field: key}
		}
		return 0, false, nil
	}
	var value float64
	switch casted := raw.(type) {
	case float64:
		value = casted
	case float32:
		value = float64(casted)
	case int:
		value = float64(casted)
	case int64:
		value = float64(casted)
	case json.Number:
		parsed, err := casted.Float64()
		if err != nil {
			return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: "not a number"}
		}
		value = parsed
	case string:
		trimmed := strings.TrimSpace(casted)
		if trimmed == "" {
			if opts.Required {
				return 0, false, &actionerr.MissingParameterError{Field: key}
			}
			return 0, false, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: "not a number"}
		}
		value = parsed
	default:
		return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: "not a finite number"}
	}
	if opts.Integer {
		if value != math.Trunc(value) {
			return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: "not an integer"}
		}
		if value > MaxInteger || value < -MaxInteger {
			return 0, false, &actionerr.InvalidParameterError{Field: key, Reason: "out of range"}
		}
	}
	return value, true, nil
}

// ReadBool accepts booleans, "true"/"false"-like strings and numbers.
func ReadBool(p Params, key string) (bool, bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return false, false, nil
	}
	switch casted := raw.(type) {
	case bool:
		return casted, true, nil
	case float64:
		return casted != 0, true, nil
	case int:
		return casted != 0, true, nil
	case json.Number:
		parsed, err := casted.Float64()
		if err != nil {
			break
		}
		return parsed != 0, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(casted)) {
		case "":
			return false, false, nil
		case "true", "1", "yes", "on":
			return true, true, nil
		case "false", "0", "no", "off":
			return false, true, nil
		}
	}
	return false, false, &actionerr.InvalidParameterError{Field: key, Reason: "not a boolean"}
}

// ReadStringList reads a list given either natively or as a JSON array string.
func ReadStringList(p Params, key string) ([]string, bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	var items []string
	switch casted := raw.(type) {
	case []string:
		items = casted
	case []any:
		items = make([]string, 0, len(casted))
		for _, item := range casted {
			text, ok := item.(string)
			if !ok {
				return nil, false, &actionerr.InvalidParameterError{Field: key, Reason: "expected a list of strings"}
			}
			items = append(items, text)
		}
	case string:
		trimmed := strings.TrimSpace(casted)
		if trimmed == "" {
			return nil, false, nil
		}
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, false, &actionerr.InvalidParameterError{Field: key, Reason: "expected a JSON array of strings"}
		}
	default:
		return nil, false, &actionerr.InvalidParameterError{Field: key, Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
	return items, true, nil
}

// SplitList splits comma separated values, trimming entries and dropping
// empty ones.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func stringValue(key string, raw any) (string, error) {
	switch casted := raw.(type) {
	case string:
		return casted, nil
	case json.Number:
		return casted.String(), nil
	case float64:
		return strconv.FormatFloat(casted, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(casted), nil
	case int64:
		return strconv.FormatInt(casted, 10), nil
	default:
		return "", &actionerr.InvalidParameterError{Field: key, Reason: fmt.Sprintf("expected a string, got %T", raw)}
	}
}
