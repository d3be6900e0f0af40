package postgres

import (
	"encoding/json"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
)

// Fixed width so instants order correctly as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

const dateKey = "$date"

func encodeFields(fields records.Fields) ([]byte, error) {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		out[key] = encodeValue(value)
	}
	return json.Marshal(out)
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return map[string]string{dateKey: v.UTC().Format(dateLayout)}
	case *time.Time:
		if v == nil {
			return nil
		}
		return map[string]string{dateKey: v.UTC().Format(dateLayout)}
	default:
		return value
	}
}

func decodeFields(raw []byte) (records.Fields, error) {
	decoded := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
	}
	fields := make(records.Fields, len(decoded))
	for key, value := range decoded {
		fields[key] = decodeValue(value)
	}
	return fields, nil
}

func decodeValue(value any) any {
	wrapped, ok := value.(map[string]any)
	if !ok || len(wrapped) != 1 {
		return value
	}
	raw, ok := wrapped[dateKey].(string)
	if !ok {
		return value
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return value
	}
	return parsed
}
