package constants

// 商品条目类型常量
const (
	ItemTypeProduct = "product"
	ItemTypeCombo   = "combo"
)

// 支持的条目类型顺序
var SupportedItemTypes = []string{ItemTypeProduct, ItemTypeCombo}

// IsSupportedItemType 判断条目类型是否受支持
func IsSupportedItemType(itemType string) bool {
	for _, t := range SupportedItemTypes {
		if t == itemType {
			return true
		}
	}
	return false
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 超卖事件来源常量
const (
	OversellOriginReplace = "replace"
	OversellOriginMerge   = "merge"
)

// 队列常量
const (
	QueueDefault      = "default"
	TaskStockOversell = "stock:oversell"
	TaskStockAudit    = "stock:audit"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "hc"
)

// 购物车锁键前缀常量
const (
	CartLockKeyPrefix = "cart:lock"
)

// 存储重试默认常量
const (
	StorageRetryAttemptsDefault = 3
	StorageTimeoutMsDefault     = 3000
)
