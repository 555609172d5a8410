package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/models"

	"gorm.io/gorm"
)

// InventoryRecord 库存读取投影。商品与套装共用同一读取形状。
type InventoryRecord struct {
	ItemID      uint         `json:"item_id"`      // 商品或套装ID
	ItemType    string       `json:"item_type"`    // 条目类型（product/combo）
	Slug        string       `json:"slug"`         // 唯一标识
	Title       string       `json:"title"`        // 标题
	Description string       `json:"description"`  // 描述
	PriceAmount models.Money `json:"price_amount"` // 价格金额
	ImageURL    string       `json:"image_url"`    // 主图
	Stock       int          `json:"stock"`        // 可售库存（购物车占用已扣除）
	IsActive    bool         `json:"is_active"`    // 是否上架
}

// InventoryRepository 库存数据访问接口。
// stock 列的所有变更都必须经由 TryReserve / Release / Restock 的条件更新完成，
// 不允许任何调用方读改写该列。
type InventoryRepository interface {
	GetRecord(ctx context.Context, itemID uint, itemType string) (*InventoryRecord, error)
	TryReserve(ctx context.Context, itemID uint, itemType string, quantity int) (bool, error)
	Release(ctx context.Context, itemID uint, itemType string, quantity int) (bool, error)
	Restock(ctx context.Context, itemID uint, itemType string, quantity int) error
	List(ctx context.Context, filter InventoryListFilter) ([]InventoryRecord, int64, error)
	WithTx(tx *gorm.DB) InventoryRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormInventoryRepository GORM 实现
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓库
func NewInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryRepository) WithTx(tx *gorm.DB) InventoryRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryRepository{db: tx}
}

// Transaction 执行事务。提交阶段冒出的驱动错误同样归一到存储哨兵错误。
func (r *GormInventoryRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return mapStorageErr(r.db.Transaction(fn))
}

// GetRecord 获取单条库存记录
func (r *GormInventoryRepository) GetRecord(ctx context.Context, itemID uint, itemType string) (*InventoryRecord, error) {
	if itemID == 0 {
		return nil, errors.New("invalid inventory record id")
	}
	switch itemType {
	case constants.ItemTypeProduct:
		var product models.Product
		if err := r.db.WithContext(ctx).First(&product, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, mapStorageErr(err)
		}
		return productRecord(&product), nil
	case constants.ItemTypeCombo:
		var combo models.Combo
		if err := r.db.WithContext(ctx).First(&combo, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, mapStorageErr(err)
		}
		return comboRecord(&combo), nil
	default:
		return nil, fmt.Errorf("unsupported item type: %s", itemType)
	}
}

// TryReserve 条件预留库存：仅当可售库存充足时在一条 UPDATE 内完成扣减。
// 返回 false 表示库存不足或记录不存在，由调用方区分。
func (r *GormInventoryRepository) TryReserve(ctx context.Context, itemID uint, itemType string, quantity int) (bool, error) {
	if itemID == 0 || quantity <= 0 {
		return false, errors.New("invalid stock reserve params")
	}
	model, err := inventoryModel(itemType)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ? AND stock >= ?", itemID, quantity).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock - ?", quantity),
		})
	if result.Error != nil {
		return false, mapStorageErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Release 原子回补库存。返回 false 表示记录不存在。
func (r *GormInventoryRepository) Release(ctx context.Context, itemID uint, itemType string, quantity int) (bool, error) {
	if itemID == 0 || quantity <= 0 {
		return false, errors.New("invalid stock release params")
	}
	model, err := inventoryModel(itemType)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock + ?", quantity),
		})
	if result.Error != nil {
		return false, mapStorageErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Restock 补货（运营侧入口，不经过购物车协调）
func (r *GormInventoryRepository) Restock(ctx context.Context, itemID uint, itemType string, quantity int) error {
	if itemID == 0 || quantity <= 0 {
		return errors.New("invalid restock params")
	}
	model, err := inventoryModel(itemType)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(model).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock + ?", quantity),
		})
	if result.Error != nil {
		return mapStorageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 目录分页查询
func (r *GormInventoryRepository) List(ctx context.Context, filter InventoryListFilter) ([]InventoryRecord, int64, error) {
	switch filter.ItemType {
	case constants.ItemTypeProduct:
		var products []models.Product
		total, err := r.listModels(ctx, &models.Product{}, filter, &products)
		if err != nil {
			return nil, 0, err
		}
		records := make([]InventoryRecord, 0, len(products))
		for i := range products {
			records = append(records, *productRecord(&products[i]))
		}
		return records, total, nil
	case constants.ItemTypeCombo:
		var combos []models.Combo
		total, err := r.listModels(ctx, &models.Combo{}, filter, &combos)
		if err != nil {
			return nil, 0, err
		}
		records := make([]InventoryRecord, 0, len(combos))
		for i := range combos {
			records = append(records, *comboRecord(&combos[i]))
		}
		return records, total, nil
	default:
		return nil, 0, fmt.Errorf("unsupported item type: %s", filter.ItemType)
	}
}

func (r *GormInventoryRepository) listModels(ctx context.Context, model interface{}, filter InventoryListFilter, dest interface{}) (int64, error) {
	query := r.db.WithContext(ctx).Model(model)
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if keyword := strings.TrimSpace(filter.Query); keyword != "" {
		condition, argCount := buildSearchCondition(r.db, []string{"title", "description", "slug"})
		if argCount > 0 {
			like := "%" + keyword + "%"
			query = query.Where(condition, repeatLikeArgs(like, argCount)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, mapStorageErr(err)
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("sort_order DESC, id ASC").Find(dest).Error; err != nil {
		return 0, mapStorageErr(err)
	}
	return total, nil
}

func inventoryModel(itemType string) (interface{}, error) {
	switch itemType {
	case constants.ItemTypeProduct:
		return &models.Product{}, nil
	case constants.ItemTypeCombo:
		return &models.Combo{}, nil
	default:
		return nil, fmt.Errorf("unsupported item type: %s", itemType)
	}
}

func productRecord(product *models.Product) *InventoryRecord {
	return &InventoryRecord{
		ItemID:      product.ID,
		ItemType:    constants.ItemTypeProduct,
		Slug:        product.Slug,
		Title:       product.Title,
		Description: product.Description,
		PriceAmount: product.PriceAmount,
		ImageURL:    product.ImageURL,
		Stock:       product.Stock,
		IsActive:    product.IsActive,
	}
}

func comboRecord(combo *models.Combo) *InventoryRecord {
	return &InventoryRecord{
		ItemID:      combo.ID,
		ItemType:    constants.ItemTypeCombo,
		Slug:        combo.Slug,
		Title:       combo.Title,
		Description: combo.Description,
		PriceAmount: combo.PriceAmount,
		ImageURL:    combo.ImageURL,
		Stock:       combo.Stock,
		IsActive:    combo.IsActive,
	}
}
