package models

import (
	"time"
)

// OversellEvent 超卖事件台账。批量同步/合并路径容忍预留失败时落一条记录，供运营核对。
type OversellEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                               // 主键
	UserID    uint      `gorm:"not null;index" json:"user_id"`                                      // 用户ID
	ItemID    uint      `gorm:"not null;index:idx_oversell_item" json:"item_id"`                    // 商品或套装ID
	ItemType  string    `gorm:"type:varchar(20);not null;index:idx_oversell_item" json:"item_type"` // 条目类型
	Requested int       `gorm:"not null" json:"requested"`                                          // 请求预留数量
	Available int       `gorm:"not null" json:"available"`                                          // 失败时的可售库存
	Origin    string    `gorm:"type:varchar(20);not null" json:"origin"`                            // 触发来源（replace/merge）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                            // 创建时间
}

// TableName 指定表名
func (OversellEvent) TableName() string {
	return "oversell_events"
}
