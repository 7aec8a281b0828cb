package transcript

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStoreSaveAndHistory(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i, content := range []string{"first", "second", "third"} {
		err := s.SaveTurn(ctx, TurnRecord{
			Subject:   "alice",
			SessionID: "s1",
			Role:      "user",
			Content:   content,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}

	records, err := s.History(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].Content != "first" || records[2].Content != "third" {
		t.Fatalf("records out of order: %+v", records)
	}
	if records[0].ID == "" {
		t.Fatalf("record ID should be assigned on save")
	}
}

func TestInMemoryStoreHistoryLimit(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	for _, content := range []string{"a", "b", "c", "d"} {
		if err := s.SaveTurn(ctx, TurnRecord{SessionID: "s1", Content: content}); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}

	records, err := s.History(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Content != "c" || records[1].Content != "d" {
		t.Fatalf("limited history = %+v, want the newest two", records)
	}
}

func TestInMemoryStoreUnknownSession(t *testing.T) {
	s := NewInMemoryStore()
	records, err := s.History(context.Background(), "nope", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}
