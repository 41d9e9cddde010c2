package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeStringMapTrimsEntries(t *testing.T) {
	got := NormalizeStringMap(map[string]string{
		"  items  ":  ` [{"variant_id":4011}] `,
		"shipping":   "STANDARD",
		"blankValue": "   ",
		"   ":        "dropped",
		"":           "dropped",
	})

	want := map[string]string{
		"items":      `[{"variant_id":4011}]`,
		"shipping":   "STANDARD",
		"blankValue": "",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestNormalizeStringMapEmptyInputs(t *testing.T) {
	if NormalizeStringMap(nil) != nil {
		t.Error("expected nil for nil input")
	}
	if NormalizeStringMap(map[string]string{}) != nil {
		t.Error("expected nil for empty map")
	}
	if NormalizeStringMap(map[string]string{" ": "x"}) != nil {
		t.Error("expected nil when every key trims to empty")
	}
}

func TestNormalizeStringMapDoesNotMutateInput(t *testing.T) {
	input := map[string]string{" key ": " value "}
	NormalizeStringMap(input)
	if input[" key "] != " value " {
		t.Errorf("input map was mutated: %#v", input)
	}
}
