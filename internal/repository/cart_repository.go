package repository

import (
	"context"
	"errors"

	"github.com/holdcart/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口。行按插入顺序（自增主键）返回。
type CartRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	GetLine(ctx context.Context, userID, itemID uint, itemType string) (*models.CartItem, error)
	UpsertLine(ctx context.Context, item *models.CartItem) error
	SetQuantity(ctx context.Context, userID, itemID uint, itemType string, quantity int) error
	DeleteLine(ctx context.Context, userID, itemID uint, itemType string) error
	ReplaceByUser(ctx context.Context, userID uint, items []models.CartItem) error
	ClearByUser(ctx context.Context, userID uint) error
	ReservedTotals(ctx context.Context) ([]ReservedTotal, error)
	WithTx(tx *gorm.DB) CartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车行
func (r *GormCartRepository) ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return items, nil
}

// GetLine 获取单行，未找到返回 nil
func (r *GormCartRepository) GetLine(ctx context.Context, userID, itemID uint, itemType string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, itemType).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return &item, nil
}

// UpsertLine 添加或覆盖购物车行
func (r *GormCartRepository) UpsertLine(ctx context.Context, item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", item.UserID, item.ItemID, item.ItemType).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mapStorageErr(r.db.WithContext(ctx).Create(item).Error)
	}
	if err != nil {
		return mapStorageErr(err)
	}
	updates := map[string]interface{}{
		"quantity":     item.Quantity,
		"unit_price":   item.UnitPrice,
		"display_name": item.DisplayName,
		"image_ref":    item.ImageRef,
	}
	return mapStorageErr(r.db.WithContext(ctx).Model(&existing).Updates(updates).Error)
}

// SetQuantity 仅更新行数量
func (r *GormCartRepository) SetQuantity(ctx context.Context, userID, itemID uint, itemType string, quantity int) error {
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, itemType).
		Update("quantity", quantity).Error
	return mapStorageErr(err)
}

// DeleteLine 删除单行
func (r *GormCartRepository) DeleteLine(ctx context.Context, userID, itemID uint, itemType string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, itemType).
		Delete(&models.CartItem{}).Error
	return mapStorageErr(err)
}

// ReplaceByUser 整体替换用户购物车，按切片顺序插入
func (r *GormCartRepository) ReplaceByUser(ctx context.Context, userID uint, items []models.CartItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return mapStorageErr(err)
	}
	for i := range items {
		items[i].ID = 0
		items[i].UserID = userID
		if err := db.Create(&items[i]).Error; err != nil {
			return mapStorageErr(err)
		}
	}
	return nil
}

// ClearByUser 清空购物车
func (r *GormCartRepository) ClearByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
	return mapStorageErr(err)
}

// ReservedTotals 聚合全部购物车在各条目上的预留数量，供库存对账比对。
func (r *GormCartRepository) ReservedTotals(ctx context.Context) ([]ReservedTotal, error) {
	var totals []ReservedTotal
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Select("item_id, item_type, SUM(quantity) AS total").
		Group("item_id, item_type").
		Order("item_id ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return totals, nil
}
