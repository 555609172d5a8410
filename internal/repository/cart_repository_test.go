package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/models"

	"github.com/shopspring/decimal"
)

func cartLine(userID, itemID uint, itemType string, quantity int) *models.CartItem {
	return &models.CartItem{
		UserID:      userID,
		ItemID:      itemID,
		ItemType:    itemType,
		Quantity:    quantity,
		UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		DisplayName: "line",
	}
}

func TestCartLineRoundTrip(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	missing, err := repo.GetLine(ctx, 1, 5, constants.ItemTypeProduct)
	if err != nil || missing != nil {
		t.Fatalf("GetLine missing = (%+v, %v), want (nil, nil)", missing, err)
	}

	line := cartLine(1, 5, constants.ItemTypeProduct, 2)
	if err := repo.UpsertLine(ctx, line); err != nil {
		t.Fatalf("UpsertLine create failed: %v", err)
	}

	stored, err := repo.GetLine(ctx, 1, 5, constants.ItemTypeProduct)
	if err != nil {
		t.Fatalf("GetLine failed: %v", err)
	}
	if stored == nil || stored.Quantity != 2 || stored.UnitPrice.String() != "10.00" {
		t.Errorf("stored = %+v, want quantity 2 price 10.00", stored)
	}

	// 覆盖更新：数量与展示字段变化，行主键不变
	stored.Quantity = 6
	stored.DisplayName = "renamed"
	if err := repo.UpsertLine(ctx, stored); err != nil {
		t.Fatalf("UpsertLine update failed: %v", err)
	}
	updated, err := repo.GetLine(ctx, 1, 5, constants.ItemTypeProduct)
	if err != nil {
		t.Fatalf("GetLine after update failed: %v", err)
	}
	if updated.ID != stored.ID || updated.Quantity != 6 || updated.DisplayName != "renamed" {
		t.Errorf("updated = %+v, want same id quantity 6 renamed", updated)
	}

	if err := repo.SetQuantity(ctx, 1, 5, constants.ItemTypeProduct, 9); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	requantified, err := repo.GetLine(ctx, 1, 5, constants.ItemTypeProduct)
	if err != nil || requantified == nil {
		t.Fatalf("GetLine after SetQuantity = (%+v, %v)", requantified, err)
	}
	if requantified.Quantity != 9 {
		t.Errorf("quantity = %d, want 9", requantified.Quantity)
	}

	if err := repo.DeleteLine(ctx, 1, 5, constants.ItemTypeProduct); err != nil {
		t.Fatalf("DeleteLine failed: %v", err)
	}
	gone, err := repo.GetLine(ctx, 1, 5, constants.ItemTypeProduct)
	if err != nil || gone != nil {
		t.Errorf("GetLine after delete = (%+v, %v), want (nil, nil)", gone, err)
	}
	// 删除不存在的行不报错
	if err := repo.DeleteLine(ctx, 1, 5, constants.ItemTypeProduct); err != nil {
		t.Errorf("repeat DeleteLine failed: %v", err)
	}
}

func TestListByUserKeepsInsertionOrder(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	if err := repo.UpsertLine(ctx, cartLine(1, 30, constants.ItemTypeProduct, 1)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(1, 10, constants.ItemTypeCombo, 2)); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(2, 99, constants.ItemTypeProduct, 5)); err != nil {
		t.Fatalf("upsert other user failed: %v", err)
	}

	items, err := repo.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ItemID != 30 || items[1].ItemID != 10 {
		t.Errorf("order = [%d, %d], want insertion order [30, 10]", items[0].ItemID, items[1].ItemID)
	}
}

func TestReplaceByUser(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	if err := repo.UpsertLine(ctx, cartLine(1, 1, constants.ItemTypeProduct, 1)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(1, 2, constants.ItemTypeProduct, 2)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(9, 1, constants.ItemTypeProduct, 7)); err != nil {
		t.Fatalf("seed other user failed: %v", err)
	}

	replacement := []models.CartItem{
		*cartLine(1, 5, constants.ItemTypeCombo, 3),
		*cartLine(1, 2, constants.ItemTypeProduct, 4),
	}
	if err := repo.ReplaceByUser(ctx, 1, replacement); err != nil {
		t.Fatalf("ReplaceByUser failed: %v", err)
	}

	items, err := repo.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ItemID != 5 || items[0].ItemType != constants.ItemTypeCombo || items[0].Quantity != 3 {
		t.Errorf("first = %+v, want combo 5 quantity 3", items[0])
	}
	if items[1].ItemID != 2 || items[1].Quantity != 4 {
		t.Errorf("second = %+v, want product 2 quantity 4", items[1])
	}

	// 其他用户的行不受影响
	others, err := repo.ListByUser(ctx, 9)
	if err != nil || len(others) != 1 {
		t.Errorf("other user items = %d (%v), want 1", len(others), err)
	}

	if err := repo.ReplaceByUser(ctx, 1, nil); err != nil {
		t.Fatalf("ReplaceByUser empty failed: %v", err)
	}
	items, err = repo.ListByUser(ctx, 1)
	if err != nil || len(items) != 0 {
		t.Errorf("items after empty replace = %d (%v), want 0", len(items), err)
	}
}

func TestClearByUser(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	if err := repo.UpsertLine(ctx, cartLine(1, 1, constants.ItemTypeProduct, 1)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(2, 1, constants.ItemTypeProduct, 2)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := repo.ClearByUser(ctx, 1); err != nil {
		t.Fatalf("ClearByUser failed: %v", err)
	}
	mine, err := repo.ListByUser(ctx, 1)
	if err != nil || len(mine) != 0 {
		t.Errorf("my items = %d (%v), want 0", len(mine), err)
	}
	theirs, err := repo.ListByUser(ctx, 2)
	if err != nil || len(theirs) != 1 {
		t.Errorf("their items = %d (%v), want 1", len(theirs), err)
	}
}

func TestReservedTotalsAggregates(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	// 同条目跨用户求和；同 ID 不同类型分开统计
	if err := repo.UpsertLine(ctx, cartLine(1, 7, constants.ItemTypeProduct, 2)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(2, 7, constants.ItemTypeProduct, 3)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(1, 7, constants.ItemTypeCombo, 1)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := repo.UpsertLine(ctx, cartLine(3, 9, constants.ItemTypeProduct, 4)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	totals, err := repo.ReservedTotals(ctx)
	if err != nil {
		t.Fatalf("ReservedTotals failed: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("totals = %+v, want 3 rows", totals)
	}
	byKey := make(map[string]int, len(totals))
	for _, total := range totals {
		byKey[fmt.Sprintf("%s#%d", total.ItemType, total.ItemID)] = total.Total
	}
	if byKey["product#7"] != 5 {
		t.Errorf("product 7 total = %d, want 5", byKey["product#7"])
	}
	if byKey["combo#7"] != 1 {
		t.Errorf("combo 7 total = %d, want 1", byKey["combo#7"])
	}
	if byKey["product#9"] != 4 {
		t.Errorf("product 9 total = %d, want 4", byKey["product#9"])
	}
}
