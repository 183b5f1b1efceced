package category

import (
	"context"
	"testing"

	"storefront/internal/dbtest"
	"storefront/internal/domain"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	repo := NewPostgres(pool)
	for _, name := range []string{"all", "clothes", "tech"} {
		if _, err := repo.Upsert(ctx, domain.Category{Name: name}); err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Name != "all" || list[2].Name != "tech" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPostgres_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	repo := NewPostgres(pool)
	first, err := repo.Upsert(ctx, domain.Category{Name: "tech"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Name: "tech"})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same ID after second upsert, got %s and %s", first.ID, second.ID)
	}
}
