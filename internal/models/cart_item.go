package models

import (
	"time"
)

// CartItem 购物车行项目。行创建即代表对应数量已从库存中预留。
// 行按自增主键排序即插入顺序；删除为物理删除，避免软删除行占用唯一索引。
type CartItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                                      // 主键
	UserID      uint      `gorm:"not null;uniqueIndex:idx_cart_user_item" json:"user_id"`                    // 用户ID
	ItemID      uint      `gorm:"not null;uniqueIndex:idx_cart_user_item" json:"item_id"`                    // 商品或套装ID
	ItemType    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_cart_user_item" json:"item_type"` // 条目类型（product/combo）
	Quantity    int       `gorm:"not null" json:"quantity"`                                                  // 数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`                   // 加入时单价
	DisplayName string    `gorm:"default:''" json:"display_name"`                                            // 展示名称（非权威）
	ImageRef    string    `gorm:"default:''" json:"image_ref"`                                               // 展示图片（非权威）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                                   // 创建时间
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`                                                   // 更新时间
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
