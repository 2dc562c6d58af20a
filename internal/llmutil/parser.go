// internal/llmutil/parser.go
package llmutil

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// json is configured to behave like encoding/json so decoded maps and structs
// match what the standard library would produce.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformedOracleOutput is matched by every extraction failure.
var ErrMalformedOracleOutput = errors.New("malformed oracle output")

// rawPreviewLen bounds how much of the raw text is echoed in error strings.
const rawPreviewLen = 500

// MalformedOutputError reports that no JSON object could be located or parsed
// in an oracle response. Raw holds the full, untruncated response.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrMalformedOracleOutput, TruncateString(e.Raw, rawPreviewLen))
	}
	return fmt.Sprintf("%s: %v (raw: %s)", ErrMalformedOracleOutput, e.Err, TruncateString(e.Raw, rawPreviewLen))
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformedOracleOutput) succeed for any *MalformedOutputError.
func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOracleOutput
}

// objectSpan returns the substring from the first '{' through the last '}'.
func objectSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ExtractJSON locates the JSON object embedded in an arbitrary oracle response
// and parses it. Markdown fences and surrounding prose are ignored because
// only the outermost braces are considered. A successful parse says nothing
// about which keys are present; callers validate those.
func ExtractJSON(text string) (map[string]any, error) {
	span, ok := objectSpan(text)
	if !ok {
		return nil, &MalformedOutputError{Raw: text, Err: errors.New("no JSON object found")}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(span), &result); err != nil {
		return nil, &MalformedOutputError{Raw: text, Err: err}
	}
	return result, nil
}

// TruncateString truncates s to maxLen bytes, appending "..." when it cuts.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	// Simple truncation; does not account for rune boundaries but sufficient for error logging.
	return s[:maxLen] + "..."
}
