package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizlive-service/internal/app"
	"quizlive-service/internal/domain"
	"quizlive-service/internal/infra/memory"
)

func TestSessionStoreClaimsJoinCode(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("314159", "quiz-1", "host-1", "conn-h", domain.ModeLive)
	if err := store.Create("314159", session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("game:session:314159") {
		t.Fatalf("expected join code claimed in redis")
	}

	// A second instance sharing the same Redis cannot reuse the code.
	other := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	err = other.Create("314159", app.NewSession("314159", "quiz-2", "host-2", "conn-h2", domain.ModeLive))
	if err != domain.ErrJoinCodeInUse {
		t.Fatalf("expected ErrJoinCodeInUse across instances, got %v", err)
	}
}

func TestSessionStoreReleasesFinishedSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
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
	if mr.Exists("game:session:" + code) {
		t.Fatalf("expected redis claim released")
	}
	if _, ok := store.Get(code); ok {
		t.Fatalf("expected session evicted")
	}
}
