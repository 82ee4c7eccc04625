package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldAction is the structured log field key for the handled action name.
	FieldAction = "action"
	// FieldRequestID is the structured log field key correlating a request with its reply.
	FieldRequestID = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RequestFields returns the fields identifying a single dispatched message.
func RequestFields(action, requestID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldAction, Value: action},
		StringField{Key: FieldRequestID, Value: requestID},
	)
}
