package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"interview-quiz-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	session := app.NewSession("attempt-1")
	if got := store.Put(session); got != session {
		t.Fatalf("expected session registered")
	}
	if !mr.Exists("quiz:session:attempt-1") {
		t.Fatalf("expected redis key to be set")
	}

	mr.FastForward(50 * time.Second)
	if err := store.Touch(context.Background()); err != nil {
		t.Fatalf("touch: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if !mr.Exists("quiz:session:attempt-1") {
		t.Fatalf("expected touch to extend liveness")
	}

	store.Delete("attempt-1")
	if mr.Exists("quiz:session:attempt-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
