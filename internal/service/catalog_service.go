package service

import (
	"context"
	"strings"

	"github.com/holdcart/internal/constants"
	"github.com/holdcart/internal/repository"
)

// CatalogService 商品 / 套装目录读取服务。
// 目录展示的 stock 即可售库存，购物车占用已在预留时扣除。
type CatalogService struct {
	invRepo repository.InventoryRepository
}

// NewCatalogService 创建目录服务
func NewCatalogService(invRepo repository.InventoryRepository) *CatalogService {
	return &CatalogService{invRepo: invRepo}
}

// ListItems 获取公开目录列表，keyword 为空时返回全部上架条目
func (s *CatalogService) ListItems(ctx context.Context, itemType, keyword string, page, pageSize int) ([]repository.InventoryRecord, int64, error) {
	if !constants.IsSupportedItemType(itemType) {
		return nil, 0, ErrInvalidItemType
	}
	filter := repository.InventoryListFilter{
		Page:       page,
		PageSize:   pageSize,
		ItemType:   itemType,
		Query:      strings.TrimSpace(keyword),
		OnlyActive: true,
	}
	return s.invRepo.List(ctx, filter)
}

// GetItem 获取公开目录详情，未上架条目视同不存在
func (s *CatalogService) GetItem(ctx context.Context, itemID uint, itemType string) (*repository.InventoryRecord, error) {
	if !constants.IsSupportedItemType(itemType) {
		return nil, ErrInvalidItemType
	}
	if itemID == 0 {
		return nil, ErrItemNotFound
	}
	record, err := s.invRepo.GetRecord(ctx, itemID, itemType)
	if err != nil {
		return nil, err
	}
	if record == nil || !record.IsActive {
		return nil, ErrItemNotFound
	}
	return record, nil
}
