package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleZH

const localeQueryKey = "lang"

var catalogs = map[string]map[string]string{
	LocaleZH: localeZH,
	LocaleEN: localeEN,
}

// ResolveLocale 解析请求语言：lang 查询参数优先，其次 Accept-Language 头。
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query(localeQueryKey)); lang != "" {
		return Normalize(lang)
	}
	if header := strings.TrimSpace(c.GetHeader("Accept-Language")); header != "" {
		first := header
		if idx := strings.IndexAny(header, ",;"); idx >= 0 {
			first = header[:idx]
		}
		return Normalize(first)
	}
	return DefaultLocale
}

// Normalize 把任意语言标签归一化到受支持的语言
func Normalize(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "en"):
		return LocaleEN
	default:
		return LocaleZH
	}
}

// T 取翻译文案。当前语言缺失时回退默认语言，仍缺失时原样返回 key，
// 调用方可以据此判断条目是否存在。
func T(locale, key string) string {
	if catalog, ok := catalogs[Normalize(locale)]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 取带格式化参数的翻译文案
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

var localeZH = map[string]string{
	"error.unauthorized":           "请先登录",
	"error.jwt_secret_missing":     "服务端未配置签名密钥",
	"error.auth_header_missing":    "缺少认证信息",
	"error.auth_header_invalid":    "认证信息格式错误",
	"error.token_invalid":          "登录凭证无效",
	"error.token_revoked":          "登录凭证已失效，请重新登录",
	"error.user_disabled":          "账号已被禁用",
	"error.user_id_invalid":        "用户标识不合法",
	"error.user_id_type_invalid":   "用户标识类型错误",
	"error.invalid_params":         "请求参数不合法",
	"error.item_not_found":         "商品或套装不存在",
	"error.item_not_available":     "商品或套装已下架",
	"error.insufficient_stock":     "库存不足",
	"error.item_not_in_cart":       "购物车中没有该条目",
	"error.invalid_quantity":       "数量不合法",
	"error.invalid_item_type":      "条目类型不合法",
	"error.cart_busy":              "操作太频繁，请稍后重试",
	"error.storage_timeout":        "服务繁忙，请稍后重试",
	"error.storage_conflict":       "数据冲突，请稍后重试",
	"error.cart_fetch_failed":      "获取购物车失败",
	"error.cart_update_failed":     "更新购物车失败",
	"error.cart_sync_failed":       "同步购物车失败",
	"error.cart_merge_failed":      "合并购物车失败",
	"error.cart_clear_failed":      "清空购物车失败",
	"error.catalog_fetch_failed":   "获取商品列表失败",
	"error.item_fetch_failed":      "获取商品详情失败",
	"error.rate_limit_unavailable": "限流服务不可用",
	"error.rate_limited":           "请求过于频繁，请 %d 秒后重试",
	"error.internal":               "服务内部错误",
}

var localeEN = map[string]string{
	"error.unauthorized":           "Please sign in first",
	"error.jwt_secret_missing":     "Server signing secret is not configured",
	"error.auth_header_missing":    "Missing authorization header",
	"error.auth_header_invalid":    "Malformed authorization header",
	"error.token_invalid":          "Invalid credentials",
	"error.token_revoked":          "Credentials revoked, please sign in again",
	"error.user_disabled":          "Account is disabled",
	"error.user_id_invalid":        "Invalid user identifier",
	"error.user_id_type_invalid":   "Unexpected user identifier type",
	"error.invalid_params":         "Invalid request parameters",
	"error.item_not_found":         "Product or combo not found",
	"error.item_not_available":     "Product or combo is not available",
	"error.insufficient_stock":     "Insufficient stock",
	"error.item_not_in_cart":       "Item is not in the cart",
	"error.invalid_quantity":       "Invalid quantity",
	"error.invalid_item_type":      "Invalid item type",
	"error.cart_busy":              "Another cart operation is in progress, please retry",
	"error.storage_timeout":        "Service busy, please retry later",
	"error.storage_conflict":       "Data conflict, please retry later",
	"error.cart_fetch_failed":      "Failed to fetch cart",
	"error.cart_update_failed":     "Failed to update cart",
	"error.cart_sync_failed":       "Failed to sync cart",
	"error.cart_merge_failed":      "Failed to merge cart",
	"error.cart_clear_failed":      "Failed to clear cart",
	"error.catalog_fetch_failed":   "Failed to fetch catalog",
	"error.item_fetch_failed":      "Failed to fetch item",
	"error.rate_limit_unavailable": "Rate limiter unavailable",
	"error.rate_limited":           "Too many requests, retry in %d seconds",
	"error.internal":               "Internal server error",
}
