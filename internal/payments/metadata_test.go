package payments

import (
	"errors"
	"strings"
	"testing"
)

type metadataItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

func TestEncodeDecodeMetadataValue(t *testing.T) {
	items := []metadataItem{
		{VariantID: 101, Quantity: 2},
		{VariantID: 202, Quantity: 1},
	}

	encoded, err := EncodeMetadataValue(items, DefaultMetadataValueLimit)
	if err != nil {
		t.Fatalf("EncodeMetadataValue returned error: %v", err)
	}

	var decoded []metadataItem
	if err := DecodeMetadataValue(encoded, &decoded); err != nil {
		t.Fatalf("DecodeMetadataValue returned error: %v", err)
	}
	if len(decoded) != 2 || decoded[0].VariantID != 101 || decoded[1].Quantity != 1 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestEncodeMetadataValueRejectsOversizedPayload(t *testing.T) {
	big := strings.Repeat("x", DefaultMetadataValueLimit)

	_, err := EncodeMetadataValue(big, DefaultMetadataValueLimit)
	if err == nil {
		t.Fatal("expected oversized payload to be rejected")
	}
	if !errors.Is(err, ErrMetadataValueTooLarge) {
		t.Errorf("expected ErrMetadataValueTooLarge, got %v", err)
	}
}

func TestEncodeMetadataValueAtLimit(t *testing.T) {
	// JSON string encoding adds two quote characters.
	value := strings.Repeat("x", DefaultMetadataValueLimit-2)

	encoded, err := EncodeMetadataValue(value, DefaultMetadataValueLimit)
	if err != nil {
		t.Fatalf("expected payload at the limit to be accepted: %v", err)
	}
	if len(encoded) != DefaultMetadataValueLimit {
		t.Errorf("unexpected encoded length: %d", len(encoded))
	}
}

func TestDecodeMetadataValueEmpty(t *testing.T) {
	var dest []metadataItem
	if err := DecodeMetadataValue("", &dest); err == nil {
		t.Fatal("expected error for empty metadata value")
	}
}
