//go:build integration
// +build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OversellEvent{},
		&models.CartItem{},
		&models.Combo{},
		&models.Product{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Combo{},
		&models.CartItem{},
		&models.OversellEvent{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresTryReserveConcurrency(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()

	product := &models.Product{
		Slug:        "pg-reserve",
		Title:       "并发预留商品",
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Stock:       25,
		IsActive:    true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	// 20 个并发请求各预留 2 件，25 件库存最多放行 12 个请求。
	const workers = 20
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryReserve(ctx, product.ID, constants.ItemTypeProduct, 2)
			if err != nil {
				t.Errorf("TryReserve failed: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 12 {
		t.Fatalf("expected 12 successful reservations, got %d", succeeded)
	}

	record, err := repo.GetRecord(ctx, product.ID, constants.ItemTypeProduct)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record == nil || record.Stock != 1 {
		t.Fatalf("expected stock 1 after reservations, got %+v", record)
	}

	ok, err := repo.Release(ctx, product.ID, constants.ItemTypeProduct, 4)
	if err != nil || !ok {
		t.Fatalf("Release failed: ok=%v err=%v", ok, err)
	}
	record, err = repo.GetRecord(ctx, product.ID, constants.ItemTypeProduct)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if record == nil || record.Stock != 5 {
		t.Fatalf("expected stock 5 after release, got %+v", record)
	}
}

func TestPostgresCartReservedTotals(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	lines := []models.CartItem{
		{UserID: 1, ItemID: 7, ItemType: constants.ItemTypeProduct, Quantity: 2},
		{UserID: 2, ItemID: 7, ItemType: constants.ItemTypeProduct, Quantity: 3},
		{UserID: 1, ItemID: 7, ItemType: constants.ItemTypeCombo, Quantity: 1},
		{UserID: 3, ItemID: 9, ItemType: constants.ItemTypeProduct, Quantity: 4},
	}
	for i := range lines {
		if err := db.Create(&lines[i]).Error; err != nil {
			t.Fatalf("create cart line failed: %v", err)
		}
	}

	totals, err := repo.ReservedTotals(ctx)
	if err != nil {
		t.Fatalf("ReservedTotals failed: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("expected 3 aggregated rows, got %d: %+v", len(totals), totals)
	}

	byKey := make(map[string]int, len(totals))
	for _, total := range totals {
		byKey[fmt.Sprintf("%s#%d", total.ItemType, total.ItemID)] = total.Total
	}
	if byKey[constants.ItemTypeProduct+"#7"] != 5 {
		t.Fatalf("expected product 7 reserved total 5, got %d", byKey[constants.ItemTypeProduct+"#7"])
	}
	if byKey[constants.ItemTypeCombo+"#7"] != 1 {
		t.Fatalf("expected combo 7 reserved total 1, got %d", byKey[constants.ItemTypeCombo+"#7"])
	}
	if byKey[constants.ItemTypeProduct+"#9"] != 4 {
		t.Fatalf("expected product 9 reserved total 4, got %d", byKey[constants.ItemTypeProduct+"#9"])
	}
}

func TestPostgresCatalogSearchUsesILIKE(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()

	products := []models.Product{
		{Slug: "rocket-pack", Title: "Rocket Booster", Description: "premium pack", Stock: 5, IsActive: true},
		{Slug: "quiet-keyboard", Title: "Quiet Keyboard", Description: "membrane keys", Stock: 5, IsActive: true},
		{Slug: "rocket-legacy", Title: "Rocket Legacy", Description: "discontinued", Stock: 0, IsActive: false},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}

	// postgres 的 LIKE 区分大小写，搜索路径必须走 ILIKE 才能命中大写标题。
	records, total, err := repo.List(ctx, InventoryListFilter{
		Page:       1,
		PageSize:   10,
		ItemType:   constants.ItemTypeProduct,
		Query:      "rocket",
		OnlyActive: true,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected exactly one active rocket product, got total=%d len=%d", total, len(records))
	}
	if records[0].Slug != "rocket-pack" {
		t.Fatalf("expected rocket-pack, got %s", records[0].Slug)
	}
}
