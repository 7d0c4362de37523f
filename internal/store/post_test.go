package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"elixirblog/internal/models"
)

func TestPostStoreUpsertAndFind(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	cats := NewCategoryStore(db)
	posts := NewPostStore(db)

	suffix := uuid.NewString()[:8]
	catA, catB := "test-cat-a-"+suffix, "test-cat-b-"+suffix
	slug := "test-post-" + suffix
	t.Cleanup(func() {
		cleanPosts(t, db, slug)
		cleanCategories(t, db, catA, catB)
	})

	for i, s := range []string{catA, catB} {
		if _, err := cats.Upsert(ctx, &models.Category{Slug: s, Name: s, SortOrder: i}); err != nil {
			t.Fatalf("Upsert category: %v", err)
		}
	}

	rank := 1
	created, err := posts.Upsert(ctx, &models.Post{
		Slug:         slug,
		Title:        "Test Post",
		Summary:      "summary",
		Body:         "## Hello",
		Author:       "김철수",
		ReadingTime:  4,
		Popular:      true,
		FeaturedRank: &rank,
		PublishedAt:  time.Now().Add(-time.Hour),
		Categories:   []string{catB, catA},
	})
	if err != nil {
		t.Fatalf("Upsert post: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}

	found, err := posts.FindBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found == nil {
		t.Fatal("expected post, got nil")
	}
	if found.Title != "Test Post" || !found.Popular || found.FeaturedRank == nil || *found.FeaturedRank != 1 {
		t.Errorf("unexpected post: %+v", found)
	}
	if strings.Join(found.Categories, ",") != catB+","+catA {
		t.Errorf("categories = %v, want tag order [%s %s]", found.Categories, catB, catA)
	}

	// Update replaces tags.
	found.Categories = []string{catA}
	found.Title = "Renamed"
	if _, err := posts.Upsert(ctx, found); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	again, err := posts.FindBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if again.Title != "Renamed" || len(again.Categories) != 1 || again.Categories[0] != catA {
		t.Errorf("after update: %+v", again)
	}
	if !again.UpdatedAt.After(created.CreatedAt) && !again.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("updated_at %v before created_at %v", again.UpdatedAt, created.CreatedAt)
	}
}

func TestPostStoreRejectsUnknownCategory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	posts := NewPostStore(db)

	slug := "test-dangling-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	_, err := posts.Upsert(ctx, &models.Post{
		Slug:        slug,
		Title:       "Dangling",
		PublishedAt: time.Now(),
		Categories:  []string{"no-such-category-" + uuid.NewString()[:8]},
	})
	if err == nil {
		t.Fatal("expected error for unknown category")
	}

	// The transaction rolled back: no post was written.
	found, err := posts.FindBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found != nil {
		t.Error("post should not exist after failed upsert")
	}
}

func TestPostStoreListPublishedSkipsFuture(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	posts := NewPostStore(db)

	suffix := uuid.NewString()[:8]
	past, future := "test-past-"+suffix, "test-future-"+suffix
	t.Cleanup(func() { cleanPosts(t, db, past, future) })

	for slug, at := range map[string]time.Time{
		past:   time.Now().Add(-time.Hour),
		future: time.Now().Add(24 * time.Hour),
	} {
		if _, err := posts.Upsert(ctx, &models.Post{Slug: slug, Title: slug, PublishedAt: at}); err != nil {
			t.Fatalf("Upsert %s: %v", slug, err)
		}
	}

	list, err := posts.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}

	var sawPast bool
	for _, p := range list {
		if p.Slug == future {
			t.Error("future post should not be listed")
		}
		if p.Slug == past {
			sawPast = true
		}
	}
	if !sawPast {
		t.Error("published post missing from list")
	}
}

func TestPostStoreFindMissing(t *testing.T) {
	db := testDB(t)
	found, err := NewPostStore(db).FindBySlug(context.Background(), "non-existent-post-slug-12345")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil, got %+v", found)
	}
}

func TestSplitTags(t *testing.T) {
	if got := splitTags(""); got != nil {
		t.Errorf("splitTags(\"\") = %v, want nil", got)
	}
	if got := splitTags("elixir,otp"); len(got) != 2 || got[0] != "elixir" || got[1] != "otp" {
		t.Errorf("splitTags = %v", got)
	}
}
