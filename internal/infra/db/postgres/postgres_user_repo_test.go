//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"discord-sales-bot/internal/domain"
	"discord-sales-bot/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewUserRepo(testPool)
	ctx := context.Background()

	t.Run("should insert, list and delete authorized users", func(t *testing.T) {
		cleanup(t)
		u := &model.AuthorizedUser{PrincipalID: "333333333333333333", DisplayName: "helper", AuthorizedAt: time.Now().UTC()}

		if err := repo.Insert(ctx, nil, u); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if err := repo.Insert(ctx, nil, u); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}

		list, err := repo.List(ctx, nil)
		if err != nil || len(list) != 1 || list[0].DisplayName != "helper" {
			t.Fatalf("unexpected list %v (%v)", list, err)
		}

		ok, err := repo.Delete(ctx, nil, u.PrincipalID)
		if err != nil || !ok {
			t.Fatalf("expected delete, got %v %v", ok, err)
		}
		ok, _ = repo.Delete(ctx, nil, u.PrincipalID)
		if ok {
			t.Error("expected second delete to report false")
		}
	})

	t.Run("should never delete an owner row", func(t *testing.T) {
		cleanup(t)
		owner := &model.AuthorizedUser{PrincipalID: "444444444444444444", IsOwner: true, AuthorizedAt: time.Now().UTC()}
		if err := repo.Insert(ctx, nil, owner); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ok, err := repo.Delete(ctx, nil, owner.PrincipalID)
		if err != nil || ok {
			t.Fatalf("expected owner row to survive, got %v %v", ok, err)
		}
	})
}
