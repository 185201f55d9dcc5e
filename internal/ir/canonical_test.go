package ir

import (
	"testing"
)

func TestMarshalCanonical_SortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": "z",
		"apple": "a",
		"mango": "m",
	}

	got, err := MarshalCanonical(obj)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}

	want := `{"apple":"a","mango":"m","zebra":"z"}`
	if string(got) != want {
		t.Errorf("canonical JSON = %q, want %q", got, want)
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"q": "a<b>&c"})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"q":"a<b>&c"}`
	if string(got) != want {
		t.Errorf("canonical JSON = %q, want %q", got, want)
	}
}

func TestMarshalCanonical_LineSeparatorsStayLiteral(t *testing.T) {
	// Go's encoder escapes U+2028/U+2029 for JavaScript embedding; they must
	// come out as literal characters in canonical form.
	got, err := MarshalCanonical("a b c")
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := "\"a b c\""
	if string(got) != want {
		t.Errorf("canonical JSON = %q, want %q", got, want)
	}
}

func TestMarshalCanonical_EscapedBackslashU2028Text(t *testing.T) {
	// A literal backslash followed by the text "u2028" is NOT the separator
	// and must stay as an escaped backslash plus plain text.
	got, err := MarshalCanonical("\\" + "u2028")
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `"\\u2028"`
	if string(got) != want {
		t.Errorf("canonical JSON = %q, want %q", got, want)
	}
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	if _, err := MarshalCanonical(map[string]any{"x": 1.5}); err == nil {
		t.Error("expected error for float value, got nil")
	}
	if _, err := MarshalCanonical(1.5); err == nil {
		t.Error("expected error for bare float, got nil")
	}
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	if _, err := MarshalCanonical(nil); err == nil {
		t.Error("expected error for nil, got nil")
	}
	if _, err := MarshalCanonical(map[string]any{"x": nil}); err == nil {
		t.Error("expected error for nil object value, got nil")
	}
}

func TestMarshalCanonical_Arrays(t *testing.T) {
	got, err := MarshalCanonical([]any{"a", int64(2), true})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `["a",2,true]`
	if string(got) != want {
		t.Errorf("canonical JSON = %q, want %q", got, want)
	}
}

func TestMarshalCanonical_StringSlice(t *testing.T) {
	got, err := MarshalCanonical([]string{"x", "y"})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	if string(got) != `["x","y"]` {
		t.Errorf("canonical JSON = %q, want %q", got, `["x","y"]`)
	}
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as combining sequence (e + U+0301) must normalize to precomposed U+00E9.
	decomposed := "é"
	precomposed := "é"

	a, err := MarshalCanonical(decomposed)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	b, err := MarshalCanonical(precomposed)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("NFC normalization mismatch: %q vs %q", a, b)
	}
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := map[string]any{
		"members": []string{"f1", "f2", "f3"},
		"tick":    int64(7),
		"nested":  map[string]any{"b": int64(2), "a": int64(1)},
	}

	first, err := MarshalCanonical(obj)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		if err != nil {
			t.Fatalf("MarshalCanonical() failed: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d produced %q, first run produced %q", i, again, first)
		}
	}
}
