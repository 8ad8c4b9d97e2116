package a2a

import (
	"reflect"
	"testing"
)

func TestNormalizeUnwrapsResult(t *testing.T) {
	raw := decodeBody([]byte(`{"result": {"2024-01-02": 101.5}}`))
	got := raw.Normalize()
	want := map[string]interface{}{"2024-01-02": 101.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalizeUnwrapsOutput(t *testing.T) {
	raw := decodeBody([]byte(`{"output": "done"}`))
	if got := raw.Normalize(); got != "done" {
		t.Errorf("Normalize = %v, want done", got)
	}
}

func TestNormalizeResultWinsOverOutput(t *testing.T) {
	raw := decodeBody([]byte(`{"result": 1, "output": 2}`))
	if got := raw.Normalize(); got != float64(1) {
		t.Errorf("Normalize = %v, want 1", got)
	}
}

func TestNormalizePassthrough(t *testing.T) {
	raw := decodeBody([]byte(`{"status": "ok"}`))
	want := map[string]interface{}{"status": "ok"}
	if got := raw.Normalize(); !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}

	// Non-object JSON passes through too.
	raw = decodeBody([]byte(`[1, 2]`))
	if got := raw.Normalize(); !reflect.DeepEqual(got, []interface{}{float64(1), float64(2)}) {
		t.Errorf("Normalize = %v", got)
	}
}

func TestNormalizeTextFallback(t *testing.T) {
	raw := decodeBody([]byte(`not json at all`))
	if got := raw.Normalize(); got != "not json at all" {
		t.Errorf("Normalize = %v", got)
	}
}
