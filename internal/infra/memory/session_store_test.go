package memory

import (
	"context"
	"testing"
	"time"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
)

func TestSessionStoreEnforcesCodeUniqueness(t *testing.T) {
	store := NewSessionStore()

	first := app.NewSession("123456", "quiz-1", "host-1", "conn-h", domain.ModeLive)
	if err := store.Create("123456", first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := store.Get("123456"); !ok {
		t.Fatalf("expected session present")
	}

	second := app.NewSession("123456", "quiz-2", "host-2", "conn-h2", domain.ModeLive)
	if err := store.Create("123456", second); err != domain.ErrJoinCodeInUse {
		t.Fatalf("expected ErrJoinCodeInUse, got %v", err)
	}

	// Non-finished sessions are never evicted.
	store.DeleteIfFinished("123456")
	if _, ok := store.Get("123456"); !ok {
		t.Fatalf("expected waiting session to survive eviction")
	}
}

func TestSessionStoreEvictsFinishedSessions(t *testing.T) {
	store := NewSessionStore()
	quizRepo := NewQuizRepository(NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Questions: []domain.Question{
			{Prompt: "q", Options: []domain.Option{{Text: "A", Correct: true}}},
		}},
	}), time.Minute)
	service := app.NewGameService(store, quizRepo)

	code, err := service.CreateSession(context.Background(), "quiz-1", "host-1", domain.ModeLive, "conn-h")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := service.Finalize(code, "conn-h"); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	store.DeleteIfFinished(code)
	if _, ok := store.Get(code); ok {
		t.Fatalf("expected finished session to be evicted")
	}
	// The code is free again for a new session.
	if err := store.Create(code, app.NewSession(code, "quiz-1", "host-1", "conn-h", domain.ModeLive)); err != nil {
		t.Fatalf("reuse code after finish: %v", err)
	}
}
