package memory

import (
	"testing"

	"interview-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("attempt-1")
	if got := store.Put(session); got != session {
		t.Fatalf("expected first put to register session")
	}
	if got := store.Put(app.NewSession("attempt-1")); got != session {
		t.Fatalf("expected second put to return registered session")
	}
	if _, ok := store.Get("attempt-1"); !ok {
		t.Fatalf("expected session present")
	}
	if n := len(store.List()); n != 1 {
		t.Fatalf("expected 1 session listed, got %d", n)
	}

	store.Delete("attempt-1")
	if _, ok := store.Get("attempt-1"); ok {
		t.Fatalf("expected session removed")
	}
}
