package utils

import "testing"

func TestDereferencePtr(t *testing.T) {
	value := 7
	if got := DereferencePtr(&value); got != 7 {
		t.Errorf("got %d", got)
	}
	if got := DereferencePtr[int](nil); got != 0 {
		t.Errorf("nil without default = %d, want 0", got)
	}
	if got := DereferencePtr(nil, 42); got != 42 {
		t.Errorf("nil with default = %d, want 42", got)
	}
}

func TestNilIfEmpty(t *testing.T) {
	if NilIfEmpty("") != nil {
		t.Error("empty string should map to nil")
	}
	if got := NilIfEmpty("EUR"); got == nil || *got != "EUR" {
		t.Errorf("got %v", got)
	}
	if NilIfEmpty(0) != nil {
		t.Error("zero int should map to nil")
	}
}

func TestParseDecimal(t *testing.T) {
	if _, err := ParseDecimal(""); err == nil {
		t.Error("empty string should fail")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Error("garbage should fail")
	}
	d, err := ParseDecimal(" 0.25 ")
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	if d.String() != "0.25" {
		t.Errorf("got %s", d)
	}
}
