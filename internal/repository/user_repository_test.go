package repository

import (
	"context"
	"testing"

	"github.com/holdcart/internal/models"
)

func TestUserRepositoryRoundTrip(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{
		Email:        "buyer@example.com",
		PasswordHash: "hashed",
		DisplayName:  "Buyer",
		Status:       "active",
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("created user has no id")
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID == nil || byID.Email != "buyer@example.com" {
		t.Errorf("byID = %+v, want buyer@example.com", byID)
	}

	byEmail, err := repo.GetByEmail(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("byEmail = %+v, want id %d", byEmail, user.ID)
	}

	missing, err := repo.GetByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("missing byID = (%+v, %v), want (nil, nil)", missing, err)
	}
	missing, err = repo.GetByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("missing byEmail = (%+v, %v), want (nil, nil)", missing, err)
	}
}
