package public

import (
	"errors"

	"github.com/holdcart/internal/http/response"
	"github.com/holdcart/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// 购物车操作错误映射。存储类错误在服务层已做有界重试，
// 走到这里说明重试耗尽，按可重试语义返回 409 / 503。
var cartErrorRules = []mappedHandlerError{
	{target: service.ErrItemNotFound, code: response.CodeNotFound, key: "error.item_not_found"},
	{target: service.ErrItemNotAvailable, code: response.CodeBadRequest, key: "error.item_not_available"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, key: "error.insufficient_stock"},
	{target: service.ErrItemNotInCart, code: response.CodeNotFound, key: "error.item_not_in_cart"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.invalid_quantity"},
	{target: service.ErrInvalidItemType, code: response.CodeBadRequest, key: "error.invalid_item_type"},
	{target: service.ErrInvalidUser, code: response.CodeBadRequest, key: "error.user_id_invalid"},
	{target: service.ErrCartBusy, code: response.CodeTooManyRequests, key: "error.cart_busy"},
	{target: service.ErrStorageTimeout, code: response.CodeUnavailable, key: "error.storage_timeout"},
	{target: service.ErrStorageConflict, code: response.CodeConflict, key: "error.storage_conflict"},
}

func respondCartError(c *gin.Context, err error, fallbackKey string) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, fallbackKey)
}
