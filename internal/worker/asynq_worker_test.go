package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/holdcart/internal/config"
	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/models"
	"github.com/holdcart/internal/provider"
	"github.com/holdcart/internal/queue"
	"github.com/holdcart/internal/repository"
	"github.com/holdcart/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Combo{},
		&models.CartItem{},
		&models.OversellEvent{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newTestContainer(t *testing.T, db *gorm.DB) *provider.Container {
	t.Helper()
	invRepo := repository.NewInventoryRepository(db)
	cartRepo := repository.NewCartRepository(db)
	oversellRepo := repository.NewOversellRepository(db)
	return &provider.Container{
		Config:        &config.Config{},
		InventoryRepo: invRepo,
		CartRepo:      cartRepo,
		OversellRepo:  oversellRepo,
		AuditService:  service.NewAuditService(cartRepo, invRepo, oversellRepo),
	}
}

func newTestConsumer(t *testing.T, db *gorm.DB) *Consumer {
	t.Helper()
	return NewConsumer(newTestContainer(t, db))
}

func TestHandleStockOversell(t *testing.T) {
	db := setupWorkerTestDB(t)
	consumer := newTestConsumer(t, db)

	product := &models.Product{Slug: "alert-item", Title: "告警商品", Stock: 3, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	payload, err := json.Marshal(queue.StockOversellPayload{
		UserID:    1,
		ItemID:    product.ID,
		ItemType:  constants.ItemTypeProduct,
		Requested: 5,
		Available: 3,
		Origin:    constants.OversellOriginReplace,
	})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	task := asynq.NewTask(queue.TaskStockOversell, payload)
	if err := consumer.handleStockOversell(context.Background(), task); err != nil {
		t.Fatalf("handleStockOversell returned error: %v", err)
	}
}

func TestHandleStockOversellMalformedPayload(t *testing.T) {
	db := setupWorkerTestDB(t)
	consumer := newTestConsumer(t, db)

	// 载荷损坏时返回错误，交给 asynq 重试或进死信队列
	bad := asynq.NewTask(queue.TaskStockOversell, []byte("{"))
	if err := consumer.handleStockOversell(context.Background(), bad); err == nil {
		t.Fatal("expected error for malformed payload")
	}

	// item_id 为空的载荷直接忽略，不触发重试
	empty, err := json.Marshal(queue.StockOversellPayload{})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	if err := consumer.handleStockOversell(context.Background(), asynq.NewTask(queue.TaskStockOversell, empty)); err != nil {
		t.Fatalf("expected nil for empty payload, got %v", err)
	}
}

func TestHandleStockAudit(t *testing.T) {
	db := setupWorkerTestDB(t)
	consumer := newTestConsumer(t, db)

	// 负库存与指向不存在条目的预留都不应让对账任务失败
	product := &models.Product{Slug: "audit-item", Title: "对账商品", Stock: -2, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	line := &models.CartItem{UserID: 8, ItemID: 999, ItemType: constants.ItemTypeCombo, Quantity: 2}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("create cart line failed: %v", err)
	}

	payload, err := json.Marshal(queue.StockAuditPayload{Reason: service.AuditReasonPeriodic})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	if err := consumer.handleStockAudit(context.Background(), asynq.NewTask(queue.TaskStockAudit, payload)); err != nil {
		t.Fatalf("handleStockAudit returned error: %v", err)
	}
}

func TestHandleStockAuditMalformedPayload(t *testing.T) {
	db := setupWorkerTestDB(t)
	consumer := newTestConsumer(t, db)

	bad := asynq.NewTask(queue.TaskStockAudit, []byte("not-json"))
	if err := consumer.handleStockAudit(context.Background(), bad); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
