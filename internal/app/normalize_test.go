package app

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"Hello World", "hello world"},
		{"  padded\t value ", "padded value"},
		{"non\u00a0breaking", "non breaking"},
		{"CAFE\u0301", "caf\u00e9"},
	}
	for _, tc := range cases {
		if NormalizeAnswer(tc.a) != NormalizeAnswer(tc.b) {
			t.Fatalf("expected %q and %q to normalize equal: %q vs %q", tc.a, tc.b, NormalizeAnswer(tc.a), NormalizeAnswer(tc.b))
		}
		once := NormalizeAnswer(tc.a)
		if NormalizeAnswer(once) != once {
			t.Fatalf("normalization of %q is not idempotent", tc.a)
		}
	}
	if NormalizeAnswer("4") == NormalizeAnswer("5") {
		t.Fatalf("distinct answers must stay distinct")
	}
}

func TestMatchOptionReturnsCanonicalText(t *testing.T) {
	options := []string{"Go Routine", "Thread", "Process"}
	got, ok := matchOption(options, "  go   routine ")
	if !ok || got != "Go Routine" {
		t.Fatalf("expected canonical option, got %q ok=%v", got, ok)
	}
	if _, ok := matchOption(options, "fiber"); ok {
		t.Fatalf("expected no match")
	}
}
