package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// aliases maps legacy parameter names onto current ones.
var aliases = map[string]string{
	"msatoshi": "amount_msat",
}

// params holds scalar parameters in textual form regardless of whether they
// arrived positional or named.
type params map[string]string

func (p params) required(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	return v, nil
}

func (p params) optional(name string) string {
	return p[name]
}

func (p params) has(name string) bool {
	_, ok := p[name]
	return ok
}

func canonical(names []string, name string) (string, error) {
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	for _, n := range names {
		if n == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown parameter %q", ErrBadParam, name)
}

// decodeJSON accepts positional (array) or named (object) params. Null values
// count as absent.
func decodeJSON(names []string, raw json.RawMessage) (params, error) {
	p := params{}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadParam, err)
		}
		if len(list) > len(names) {
			return nil, fmt.Errorf("%w: expected at most %d parameters, got %d", ErrBadParam, len(names), len(list))
		}
		for i, v := range list {
			s, ok, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", names[i], err)
			}
			if ok {
				p[names[i]] = s
			}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadParam, err)
		}
		for k, v := range obj {
			name, err := canonical(names, k)
			if err != nil {
				return nil, err
			}
			s, ok, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if ok {
				p[name] = s
			}
		}
	default:
		return nil, fmt.Errorf("%w: params must be an array or an object", ErrBadParam)
	}

	return p, nil
}

func scalar(v json.RawMessage) (string, bool, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", false, nil
	}

	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false, fmt.Errorf("%w: %v", ErrBadParam, err)
		}
		return s, true, nil
	case '[', '{':
		return "", false, fmt.Errorf("%w: expected a scalar value", ErrBadParam)
	default:
		return string(v), true, nil
	}
}

// parseAmount reads an amount in millisatoshi. Accepted forms are a bare
// integer, an integer with an msat or sat suffix, and "any" for an amountless
// invoice.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "any" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "msat"):
		s = strings.TrimSuffix(s, "msat")
	case strings.HasSuffix(s, "sat"):
		s = strings.TrimSuffix(s, "sat")
		multiplier = 1000
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrBadParam, s)
	}
	if n > math.MaxInt64/multiplier || n < math.MinInt64/multiplier {
		return 0, fmt.Errorf("%w: amount %q overflows", ErrBadParam, s)
	}

	return n * multiplier, nil
}

// parseDuration reads integer seconds or a Go duration string.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > math.MaxInt64/int64(time.Second) || n < math.MinInt64/int64(time.Second) {
			return 0, fmt.Errorf("%w: duration %q overflows", ErrBadParam, s)
		}
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q", ErrBadParam, s)
	}

	return d, nil
}
