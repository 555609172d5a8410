package service

import (
	"errors"

	"github.com/holdcart/internal/repository"
)

// 购物车库存协调的业务错误
var (
	ErrItemNotFound      = errors.New("商品或套装不存在")
	ErrItemNotAvailable  = errors.New("商品或套装已下架")
	ErrInsufficientStock = errors.New("库存不足")
	ErrItemNotInCart     = errors.New("购物车中没有该条目")
	ErrInvalidQuantity   = errors.New("数量不合法")
	ErrInvalidItemType   = errors.New("条目类型不合法")
	ErrInvalidUser       = errors.New("用户标识不合法")
	ErrCartBusy          = errors.New("购物车操作进行中，请稍后重试")
)

// 存储层哨兵错误在 repository 声明（驱动错误的归一在那里完成），
// 这里导出同一实例，调用方统一对 service 错误做 errors.Is 判断。
var (
	ErrStorageTimeout  = repository.ErrStorageTimeout
	ErrStorageConflict = repository.ErrStorageConflict
)
