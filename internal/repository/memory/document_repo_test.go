package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/pryanikov/archiveapp/internal/domain"
)

func TestUpsertAndGetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	doc := &domain.Document{ID: "d-1", Title: "First", Author: []string{"Doe"}}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "First" {
		t.Errorf("Title = %q, want First", got.Title)
	}

	// Replace by id.
	doc.Title = "Renamed"
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	got, err = repo.GetByID(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", got.Title)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewDocumentRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("GetByID() error = %v, want %v", err, domain.ErrDocumentNotFound)
	}
}

func TestGetAllPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	for _, id := range []string{"c", "a", "b"} {
		if err := repo.Upsert(ctx, &domain.Document{ID: id, Title: id}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}

	docs, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}

	want := []string{"c", "a", "b"}
	if len(docs) != len(want) {
		t.Fatalf("GetAll() returned %d docs, want %d", len(docs), len(want))
	}
	for i, doc := range docs {
		if doc.ID != want[i] {
			t.Errorf("docs[%d].ID = %q, want %q", i, doc.ID, want[i])
		}
	}
}

func TestUpsertKeepsPositionOnReplace(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	for _, id := range []string{"x", "y", "z"} {
		if err := repo.Upsert(ctx, &domain.Document{ID: id, Title: id}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", id, err)
		}
	}
	if err := repo.Upsert(ctx, &domain.Document{ID: "y", Title: "y2"}); err != nil {
		t.Fatalf("replace Upsert() error = %v", err)
	}

	docs, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if docs[1].ID != "y" || docs[1].Title != "y2" {
		t.Errorf("docs[1] = %+v, want replaced y at original position", docs[1])
	}
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	if err := repo.Upsert(ctx, &domain.Document{ID: "d-1", Title: "Doc"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.Delete(ctx, "d-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// Deleting again, or deleting an unknown id, is not an error.
	if err := repo.Delete(ctx, "d-1"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete(unknown) error = %v", err)
	}
}

func TestGetByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	seed := []*domain.Document{
		{ID: "1", Title: "A", AddedByUserID: "u-1"},
		{ID: "2", Title: "B", AddedByUserID: "u-2"},
		{ID: "3", Title: "C", AddedByUserID: "u-1"},
	}
	for _, doc := range seed {
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	docs, err := repo.GetByOwner(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByOwner() error = %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "1" || docs[1].ID != "3" {
		t.Errorf("GetByOwner() = %+v, want docs 1 and 3", docs)
	}
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()

	if err := repo.Upsert(ctx, &domain.Document{ID: "d-1", Title: "Original", Author: []string{"Doe"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	got.Title = "Mutated"
	got.Author[0] = "Mallory"

	fresh, err := repo.GetByID(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if fresh.Title != "Original" || fresh.Author[0] != "Doe" {
		t.Errorf("stored document was mutated through a returned copy: %+v", fresh)
	}
}
