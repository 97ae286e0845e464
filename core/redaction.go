package core

import "strings"

const RedactedValue = "[REDACTED]"

func RedactSensitiveMap(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return redactSensitiveMap(metadata)
}

func redactSensitiveMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if shouldRedactKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactSensitiveValue(value)
	}
	return target
}

func redactSensitiveValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return redactSensitiveMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactSensitiveValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func shouldRedactKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || isTraceabilityKey(key) {
		return false
	}
	sensitiveTokens := []string{
		"pin",
		"code",
		"secret",
		"token",
		"authorization",
		"signature",
		"sig",
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

func isTraceabilityKey(key string) bool {
	switch key {
	case "attempt_id",
		"country_code",
		"result_code",
		"event_type",
		"verify_error",
		"error_text_code",
		"trace_id",
		"request_id":
		return true
	default:
		return false
	}
}

// MaskPhoneNumber keeps the last three digits of a phone number.
func MaskPhoneNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	const visible = 3
	if len(number) <= visible {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-visible) + number[len(number)-visible:]
}
