package models

import (
	"time"

	"gorm.io/gorm"
)

// Combo 套装表。与商品共享购物车语义，但库存计数独立。
type Combo struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                          // 唯一标识
	Title       string         `gorm:"not null" json:"title"`                                     // 标题
	Description string         `gorm:"type:text" json:"description"`                              // 描述
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 价格金额
	ImageURL    string         `gorm:"default:''" json:"image_url"`                               // 主图
	Stock       int            `gorm:"not null;default:0" json:"stock"`                           // 可售库存（购物车占用已扣除）
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                       // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Combo) TableName() string {
	return "combos"
}
