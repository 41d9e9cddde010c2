package payments

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMetadataValueLimit mirrors Stripe's per-value metadata limit of 500 characters.
const DefaultMetadataValueLimit = 500

// ErrMetadataValueTooLarge is returned when an encoded metadata value exceeds the
// processor's per-value size limit. Callers must reject the request rather than
// truncate, since a truncated payload would fail to decode on the webhook side.
var ErrMetadataValueTooLarge = errors.New("payments: metadata value exceeds size limit")

// EncodeMetadataValue marshals v to compact JSON for storage in a session
// metadata field, enforcing the per-value size limit.
func EncodeMetadataValue(v any, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMetadataValueLimit
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("payments: encode metadata value: %w", err)
	}
	if len(data) > limit {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrMetadataValueTooLarge, len(data), limit)
	}
	return string(data), nil
}

// DecodeMetadataValue unmarshals a metadata field previously written by EncodeMetadataValue.
func DecodeMetadataValue(raw string, dest any) error {
	if raw == "" {
		return errors.New("payments: metadata value is empty")
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("payments: decode metadata value: %w", err)
	}
	return nil
}
