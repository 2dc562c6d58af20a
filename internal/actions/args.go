package actions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Oracle-produced arguments arrive as decoded JSON, so numbers are float64
// and anything may be a string. These helpers accept the reasonable forms
// and reject the rest with a message fit for the oracle.

func stringArg(args map[string]any, key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("argument '%s' must be a string, got %T", key, raw)
	}
	s = strings.TrimSpace(s)
	return s, s != "", nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("argument '%s' must be an integer, got %v", key, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("argument '%s' must be an integer, got %q", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument '%s' must be an integer, got %T", key, raw)
	}
}

func boolArg(args map[string]any, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("argument '%s' must be a boolean, got %q", key, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("argument '%s' must be a boolean, got %T", key, raw)
	}
}
