package repository

import (
	"context"

	"github.com/holdcart/internal/models"

	"gorm.io/gorm"
)

// OversellRepository 超卖事件台账访问接口
type OversellRepository interface {
	Create(ctx context.Context, event *models.OversellEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.OversellEvent, error)
	WithTx(tx *gorm.DB) OversellRepository
}

// GormOversellRepository GORM 实现
type GormOversellRepository struct {
	db *gorm.DB
}

// NewOversellRepository 创建超卖事件仓库
func NewOversellRepository(db *gorm.DB) *GormOversellRepository {
	return &GormOversellRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOversellRepository) WithTx(tx *gorm.DB) OversellRepository {
	if tx == nil {
		return r
	}
	return &GormOversellRepository{db: tx}
}

// Create 写入一条超卖事件
func (r *GormOversellRepository) Create(ctx context.Context, event *models.OversellEvent) error {
	if event == nil {
		return nil
	}
	return mapStorageErr(r.db.WithContext(ctx).Create(event).Error)
}

// ListRecent 按时间倒序取最近的事件
func (r *GormOversellRepository) ListRecent(ctx context.Context, limit int) ([]models.OversellEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.OversellEvent
	err := r.db.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return events, nil
}
