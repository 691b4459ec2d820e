package logger

import "time"

// Standard field key constants for structured logging.
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldUserID       = "user_id"
	FieldTranscriptID = "transcript_id"
	FieldOperation    = "operation"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldProvider     = "provider"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "apply", "id", id))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
