package logging

import (
	"strconv"

	"go.uber.org/zap"
)

// SecretValue is satisfied by config.Secret.
type SecretValue interface {
	Value() string
}

// Secret creates a Zap field that records only that a secret is set and its
// length.
func Secret(key string, val SecretValue) zap.Field {
	if val == nil || val.Value() == "" {
		return zap.String(key, "")
	}
	return RedactedString(key, val.Value())
}

// RedactedString creates a Zap field with redacted value and length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}
