package exam

import (
	"reflect"
	"testing"
)

func TestCommentCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		comments []string
		stored   string
	}{
		{"empty", []string{}, ""},
		{"single", []string{"fine"}, "fine"},
		{"two", []string{"fine", "slight asymmetry noted"}, "fine|~|slight asymmetry noted"},
		{"punctuation", []string{"a, b; c", "x|y", "~"}, "a, b; c|~|x|y|~|~"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeComments(tt.comments)
			if got != tt.stored {
				t.Errorf("EncodeComments() = %q, want %q", got, tt.stored)
			}
			back := DecodeComments(got)
			if !reflect.DeepEqual(back, tt.comments) {
				t.Errorf("DecodeComments(EncodeComments()) = %#v, want %#v", back, tt.comments)
			}
		})
	}
}

func TestDecodeComments_EmptyIsEmptyList(t *testing.T) {
	got := DecodeComments("")
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestDecodeComments_Idempotent(t *testing.T) {
	stored := EncodeComments([]string{"tone normal", "follow up in 3 months"})
	a, b := DecodeComments(stored), DecodeComments(stored)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated decodes disagree: %v vs %v", a, b)
	}
}

func TestNormalizeComments(t *testing.T) {
	got := normalizeComments([]string{"  ok ", "", "   ", "second"})
	want := []string{"ok", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeComments() = %#v, want %#v", got, want)
	}
	if got := normalizeComments(nil); got == nil || len(got) != 0 {
		t.Errorf("nil input should normalize to empty list, got %#v", got)
	}
}
