package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表。注册与登录由账号服务维护，这里只消费身份、状态和 Token 失效信息。
type User struct {
	ID                 uint           `gorm:"primarykey" json:"id"`              // 主键
	Email              string         `gorm:"uniqueIndex;not null" json:"email"` // 邮箱，游客购物车合并按邮箱定位
	PasswordHash       string         `gorm:"not null" json:"-"`                 // 由账号服务写入，本服务不参与校验
	DisplayName        string         `gorm:"default:''" json:"display_name"`    // 昵称
	Locale             string         `gorm:"default:'zh-CN'" json:"locale"`     // 语言偏好
	Status             string         `gorm:"default:'active'" json:"status"`    // active / disabled，disabled 拒绝访问购物车
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`       // 版本号不匹配的 Token 一律作废
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                    // 早于该时间签发的 Token 作废
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`           // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
