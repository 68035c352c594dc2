package memory

import (
	"context"
	"testing"
	"time"
)

func TestContentRepositorySetAndGetAll(t *testing.T) {
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	repo := NewContentRepository(WithClock(func() time.Time { return now }))

	saved, err := repo.SetField(context.Background(), "site_title", "Happy 30th!")
	if err != nil {
		t.Fatalf("SetField returned error: %v", err)
	}
	if saved.Value != "Happy 30th!" || !saved.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected saved field %+v", saved)
	}

	fields, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields["site_title"].Value != "Happy 30th!" {
		t.Fatalf("unexpected field %+v", fields["site_title"])
	}
}

func TestContentRepositoryOverwritesExistingKey(t *testing.T) {
	repo := NewContentRepository()

	if _, err := repo.SetField(context.Background(), "music_url", "https://old"); err != nil {
		t.Fatalf("SetField returned error: %v", err)
	}
	if _, err := repo.SetField(context.Background(), "music_url", "https://new"); err != nil {
		t.Fatalf("SetField returned error: %v", err)
	}

	fields, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if fields["music_url"].Value != "https://new" {
		t.Fatalf("expected overwrite, got %+v", fields["music_url"])
	}
}

func TestContentRepositoryRejectsEmptyKey(t *testing.T) {
	repo := NewContentRepository()
	if _, err := repo.SetField(context.Background(), "   ", "value"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
